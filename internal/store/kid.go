package store

import (
	"fmt"

	"github.com/fennwick/hearth/internal/model"
)

func scanKid(scanner interface{ Scan(...any) error }) (*model.Kid, error) {
	var k model.Kid
	err := scanner.Scan(&k.ID, &k.Name, &k.Color, &k.Coins, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

const kidCols = `id, name, color, coins, created_at, updated_at`

func (s *FamilyStore) ListKids(familyID string) ([]model.Kid, error) {
	rows, err := s.db.Query(
		`SELECT `+kidCols+` FROM kids WHERE family_id = ? ORDER BY created_at ASC, name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list kids: %w", err)
	}
	defer rows.Close()

	var kids []model.Kid
	for rows.Next() {
		k, err := scanKid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kid: %w", err)
		}
		kids = append(kids, *k)
	}
	return kids, rows.Err()
}

// SaveKids replaces the family's kid collection wholesale. Outbound sync
// pushes full collections, never diffs.
func (s *FamilyStore) SaveKids(kids []model.Kid, familyID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM kids WHERE family_id = ?`, familyID); err != nil {
		return fmt.Errorf("clear kids: %w", err)
	}
	for _, k := range kids {
		if _, err := tx.Exec(
			`INSERT INTO kids (id, family_id, name, color, coins, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			k.ID, familyID, k.Name, k.Color, k.Coins, k.CreatedAt, k.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert kid %q: %w", k.Name, err)
		}
	}
	return tx.Commit()
}

// UpdateKidCoins applies a signed delta to a kid's coin balance. Balances
// may go negative; no floor is enforced.
func (s *FamilyStore) UpdateKidCoins(kidID string, delta int, familyID string) error {
	res, err := s.db.Exec(
		`UPDATE kids SET coins = coins + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		delta, kidID, familyID,
	)
	if err != nil {
		return fmt.Errorf("update kid coins: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update kid coins: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
