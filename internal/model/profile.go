package model

import (
	"errors"
	"time"
)

// Role is a family member's role within their family.
type Role string

const (
	RoleParent Role = "parent"
	RoleKid    Role = "kid"
)

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleKid
}

// Profile is the stored record for an authenticated person. Role and
// FamilyID are set together when onboarding completes and cleared together
// when the user leaves their family.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      *Role     `json:"role,omitempty"`
	FamilyID  *string   `json:"family_id,omitempty"`
	HasPIN    bool      `json:"has_pin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrProfileRoleMismatch = errors.New("profile role and family id must be set together")

func (p *Profile) Validate() error {
	if (p.Role == nil) != (p.FamilyID == nil) {
		return ErrProfileRoleMismatch
	}
	if p.Role != nil && !p.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}

// InFamily reports whether the profile has completed family onboarding.
func (p *Profile) InFamily() bool {
	return p.Role != nil && p.FamilyID != nil
}
