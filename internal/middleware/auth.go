package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fennwick/hearth/internal/session"
)

// RequireDevice gates the API behind a shared device token when one is
// configured. An empty token disables the check, which is the normal
// trusted-LAN deployment.
func RequireDevice(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := bearerToken(r)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PhaseSource reports the current session phase. The session coordinator
// satisfies it.
type PhaseSource interface {
	CurrentState() session.State
}

// RequireParent rejects requests unless the device session is in the
// parent phase. The fine-grained role checks still live in the
// coordinator; this middleware just fails fast with a clear status.
func RequireParent(src PhaseSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if src.CurrentState().Phase != session.PhaseParent {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
