package store

import (
	"database/sql"
	"fmt"

	"github.com/fennwick/hearth/internal/model"
	"github.com/google/uuid"
)

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.OwnerID, &f.InviteCode, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const familyCols = `id, name, owner_id, invite_code, created_at`

// maxInviteAttempts bounds regeneration when a fresh code collides with an
// existing family's code.
const maxInviteAttempts = 5

// CreateFamily creates a family owned by the given user, assigns it a
// fresh unique invite code, and records the owner as a parent member.
func (s *FamilyStore) CreateFamily(name, ownerID string) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var code string
	for attempt := 0; ; attempt++ {
		code, err = generateInviteCode()
		if err != nil {
			return nil, err
		}
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM families WHERE invite_code = ?`, code).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check invite code: %w", err)
		}
		if exists == 0 {
			break
		}
		if attempt+1 >= maxInviteAttempts {
			return nil, fmt.Errorf("generate invite code: no unique code after %d attempts", maxInviteAttempts)
		}
	}

	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO families (id, name, owner_id, invite_code) VALUES (?, ?, ?, ?)`,
		id, name, ownerID, code,
	); err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)`,
		id, ownerID, string(model.RoleParent),
	); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetFamilyByID(id)
}

func (s *FamilyStore) GetFamilyByID(id string) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

// JoinFamily adds the user to the family matching the invite code with the
// requested role. If the user is already a member, the existing membership
// role wins. Returns ErrNotFound when the code matches no family.
func (s *FamilyStore) JoinFamily(code, userID string, role model.Role) (*model.Family, model.Role, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE invite_code = ?`, code)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("family by invite code: %w", err)
	}

	existing, err := s.VerifyMembership(f.ID, userID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return f, *existing, nil
	}

	if _, err := s.db.Exec(
		`INSERT INTO family_members (family_id, user_id, role) VALUES (?, ?, ?)`,
		f.ID, userID, string(role),
	); err != nil {
		return nil, "", fmt.Errorf("insert membership: %w", err)
	}
	return f, role, nil
}

// VerifyMembership returns the user's role in the family, or nil when the
// membership does not exist.
func (s *FamilyStore) VerifyMembership(familyID, userID string) (*model.Role, error) {
	var role string
	err := s.db.QueryRow(
		`SELECT role FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verify membership: %w", err)
	}
	r := model.Role(role)
	return &r, nil
}

// LeaveFamily removes the user's membership. If the user was the family's
// last parent, the whole family is deleted along with its collections.
func (s *FamilyStore) LeaveFamily(familyID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRow(
		`SELECT role FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("leave family: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	if model.Role(role) == model.RoleParent {
		var parents int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM family_members WHERE family_id = ? AND role = ?`,
			familyID, string(model.RoleParent),
		).Scan(&parents)
		if err != nil {
			return fmt.Errorf("count parents: %w", err)
		}
		if parents == 0 {
			if _, err := tx.Exec(`DELETE FROM families WHERE id = ?`, familyID); err != nil {
				return fmt.Errorf("delete family: %w", err)
			}
		}
	}

	return tx.Commit()
}
