// Package handler exposes the session coordinator over a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fennwick/hearth/internal/session"
	"github.com/fennwick/hearth/internal/store"
	"github.com/fennwick/hearth/internal/submission"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeOpError maps coordinator and store errors onto HTTP statuses. The
// error text is shown to the user, so sentinel errors carry readable
// messages.
func writeOpError(w http.ResponseWriter, err error) {
	writeError(w, errStatus(err), err.Error())
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotParent),
		errors.Is(err, session.ErrNotKid),
		errors.Is(err, submission.ErrNotRequester):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSignInInFlight),
		errors.Is(err, session.ErrNoFamily),
		errors.Is(err, session.ErrNoProfile),
		errors.Is(err, store.ErrAlreadyReversed),
		errors.Is(err, submission.ErrNotPending),
		errors.Is(err, submission.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, session.ErrInsufficientCoins):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
