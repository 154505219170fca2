package store

import (
	"database/sql"
	"fmt"

	"github.com/fennwick/hearth/internal/model"
)

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var role, familyID, pinHash sql.NullString

	err := scanner.Scan(&p.ID, &p.Name, &role, &familyID, &pinHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if role.Valid {
		r := model.Role(role.String)
		p.Role = &r
	}
	if familyID.Valid {
		p.FamilyID = &familyID.String
	}
	p.HasPIN = pinHash.Valid && pinHash.String != ""
	return &p, nil
}

const profileCols = `id, name, role, family_id, pin_hash, created_at, updated_at`

// GetProfile returns the stored profile for the given user id, or nil if
// the user has never been seen.
func (s *FamilyStore) GetProfile(userID string) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SaveProfile inserts or updates a profile. The PIN hash is managed
// separately and left untouched here.
func (s *FamilyStore) SaveProfile(p *model.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	var role, familyID sql.NullString
	if p.Role != nil {
		role = sql.NullString{String: string(*p.Role), Valid: true}
	}
	if p.FamilyID != nil {
		familyID = sql.NullString{String: *p.FamilyID, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO profiles (id, name, role, family_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   role = excluded.role,
		   family_id = excluded.family_id,
		   updated_at = CURRENT_TIMESTAMP`,
		p.ID, p.Name, role, familyID,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// SetPIN stores a bcrypt hash gating parent decisions on shared devices.
// An empty hash clears the PIN.
func (s *FamilyStore) SetPIN(userID, hash string) error {
	var h sql.NullString
	if hash != "" {
		h = sql.NullString{String: hash, Valid: true}
	}
	res, err := s.db.Exec(
		`UPDATE profiles SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		h, userID,
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPINHash returns the stored PIN hash, or "" when no PIN is set.
func (s *FamilyStore) GetPINHash(userID string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT pin_hash FROM profiles WHERE id = ?`, userID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash.String, nil
}
