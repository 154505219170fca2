package store

import (
	"fmt"

	"github.com/fennwick/hearth/internal/model"
)

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	err := scanner.Scan(&r.ID, &r.Name, &r.Description, &r.Icon, &r.Cost, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const rewardCols = `id, name, description, icon, cost, created_at`

func (s *FamilyStore) ListRewards(familyID string) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE family_id = ? ORDER BY cost ASC, name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// SaveRewards replaces the family's reward collection wholesale.
func (s *FamilyStore) SaveRewards(rewards []model.Reward, familyID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM rewards WHERE family_id = ?`, familyID); err != nil {
		return fmt.Errorf("clear rewards: %w", err)
	}
	for _, r := range rewards {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("reward %q: %w", r.Name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO rewards (id, family_id, name, description, icon, cost, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, familyID, r.Name, r.Description, r.Icon, r.Cost, r.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert reward %q: %w", r.Name, err)
		}
	}
	return tx.Commit()
}
