// Package identity abstracts the external identity provider: who is
// currently signed in on this device, and how a sign-in attempt is
// exchanged for an identity.
package identity

import (
	"context"
	"errors"
)

// Identity is the authenticated person behind the current device session.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Method carries the credentials for one sign-in attempt. For the token
// provider this is a signed login token handed to the device.
type Method struct {
	Token string `json:"token"`
}

var (
	// ErrNotConfigured means the provider has no credentials/secret set up.
	ErrNotConfigured = errors.New("identity provider not configured")
	// ErrCancelled means the user abandoned the sign-in attempt.
	ErrCancelled = errors.New("sign-in cancelled")
	// ErrUnknown covers every other sign-in failure.
	ErrUnknown = errors.New("sign-in failed")
)

// Provider is the identity-provider contract consumed by the session
// coordinator.
type Provider interface {
	// CurrentIdentity returns the signed-in identity, or nil when nobody
	// is signed in on this device.
	CurrentIdentity(ctx context.Context) (*Identity, error)
	// SignIn exchanges the method's credentials for an identity and
	// persists it as the device's current identity.
	SignIn(ctx context.Context, method Method) (*Identity, error)
	// SignOut clears the device's current identity.
	SignOut(ctx context.Context) error
}
