package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTTL bounds how long a persisted device identity stays valid
// before the user has to sign in again.
const sessionTTL = 90 * 24 * time.Hour

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// TokenProvider verifies HMAC-signed login tokens and persists the current
// identity as a re-signed session token on disk. One device, one identity.
type TokenProvider struct {
	secret    []byte
	statePath string
}

// NewTokenProvider creates a provider signing and verifying with the given
// shared secret. statePath is where the current identity token lives.
func NewTokenProvider(secret []byte, statePath string) *TokenProvider {
	return &TokenProvider{secret: secret, statePath: statePath}
}

func (p *TokenProvider) CurrentIdentity(ctx context.Context) (*Identity, error) {
	if len(p.secret) == 0 {
		return nil, ErrNotConfigured
	}

	data, err := os.ReadFile(p.statePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity state: %w", err)
	}

	id, err := p.verify(string(data))
	if err != nil {
		// A corrupt or expired state file means nobody is signed in.
		return nil, nil
	}
	return id, nil
}

func (p *TokenProvider) SignIn(ctx context.Context, method Method) (*Identity, error) {
	if len(p.secret) == 0 {
		return nil, ErrNotConfigured
	}
	if method.Token == "" {
		return nil, ErrCancelled
	}

	id, err := p.verify(method.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	session, err := p.sign(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	if err := os.WriteFile(p.statePath, []byte(session), 0o600); err != nil {
		return nil, fmt.Errorf("persist identity state: %w", err)
	}
	return id, nil
}

func (p *TokenProvider) SignOut(ctx context.Context) error {
	err := os.Remove(p.statePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear identity state: %w", err)
	}
	return nil
}

// MintLoginToken issues a login token for the given user, used by the
// provisioning side to enroll a device.
func (p *TokenProvider) MintLoginToken(userID, name string, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", ErrNotConfigured
	}
	return p.signWithTTL(&Identity{ID: userID, Name: name}, ttl)
}

func (p *TokenProvider) sign(id *Identity) (string, error) {
	return p.signWithTTL(id, sessionTTL)
}

func (p *TokenProvider) signWithTTL(id *Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(p.secret)
}

func (p *TokenProvider) verify(raw string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || c.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return &Identity{ID: c.Subject, Name: c.Name}, nil
}
