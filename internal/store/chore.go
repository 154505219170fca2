package store

import (
	"fmt"

	"github.com/fennwick/hearth/internal/model"
)

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var paused int

	err := scanner.Scan(
		&c.ID, &c.Name, &c.DueDate, &c.RewardCoins, &c.PunishmentCoins,
		&c.Frequency, &paused, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Paused = paused != 0
	return &c, nil
}

const choreCols = `id, name, due_date, reward_coins, punishment_coins, frequency, paused, created_at, updated_at`

func (s *FamilyStore) ListChores(familyID string) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE family_id = ? ORDER BY due_date ASC, name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chores {
		assignees, err := s.listAssignees(chores[i].ID)
		if err != nil {
			return nil, err
		}
		chores[i].AssigneeIDs = assignees
	}
	return chores, nil
}

func (s *FamilyStore) listAssignees(choreID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT kid_id FROM chore_assignees WHERE chore_id = ? ORDER BY kid_id`, choreID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveChores replaces the family's chore collection wholesale, assignee
// sets included.
func (s *FamilyStore) SaveChores(chores []model.Chore, familyID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM chore_assignees WHERE chore_id IN (SELECT id FROM chores WHERE family_id = ?)`,
		familyID,
	); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chores WHERE family_id = ?`, familyID); err != nil {
		return fmt.Errorf("clear chores: %w", err)
	}

	for _, c := range chores {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("chore %q: %w", c.Name, err)
		}
		paused := 0
		if c.Paused {
			paused = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO chores (id, family_id, name, due_date, reward_coins, punishment_coins, frequency, paused, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, familyID, c.Name, c.DueDate, c.RewardCoins, c.PunishmentCoins,
			string(c.Frequency), paused, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert chore %q: %w", c.Name, err)
		}
		for _, kidID := range c.AssigneeIDs {
			if _, err := tx.Exec(
				`INSERT INTO chore_assignees (chore_id, kid_id) VALUES (?, ?)`,
				c.ID, kidID,
			); err != nil {
				return fmt.Errorf("insert assignee: %w", err)
			}
		}
	}
	return tx.Commit()
}
