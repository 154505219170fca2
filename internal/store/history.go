package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fennwick/hearth/internal/model"
	"github.com/google/uuid"
)

func scanHistoryEntry(scanner interface{ Scan(...any) error }) (*model.HistoryEntry, error) {
	var e model.HistoryEntry
	var reversed int
	var submissionID, evidencePath sql.NullString

	err := scanner.Scan(
		&e.ID, &e.Type, &e.KidID, &e.Title, &e.Amount, &e.OccurredAt,
		&reversed, &submissionID, &evidencePath,
	)
	if err != nil {
		return nil, err
	}

	e.Reversed = reversed != 0
	if submissionID.Valid {
		e.SubmissionID = &submissionID.String
	}
	if evidencePath.Valid {
		e.EvidencePath = &evidencePath.String
	}
	return &e, nil
}

const historyCols = `id, type, kid_id, title, amount, occurred_at, reversed, submission_id, evidence_path`

func (s *FamilyStore) AddHistoryEntry(e *model.HistoryEntry, familyID string) error {
	var submissionID, evidencePath sql.NullString
	if e.SubmissionID != nil {
		submissionID = sql.NullString{String: *e.SubmissionID, Valid: true}
	}
	if e.EvidencePath != nil {
		evidencePath = sql.NullString{String: *e.EvidencePath, Valid: true}
	}
	reversed := 0
	if e.Reversed {
		reversed = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO history (id, family_id, type, kid_id, title, amount, occurred_at, reversed, submission_id, evidence_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, familyID, string(e.Type), e.KidID, e.Title, e.Amount, e.OccurredAt,
		reversed, submissionID, evidencePath,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// FetchHistory returns the family's ledger, newest first.
func (s *FamilyStore) FetchHistory(familyID string) ([]model.HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+historyCols+` FROM history WHERE family_id = ? ORDER BY occurred_at DESC, id DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ReverseHistoryEntry undoes a prior coin change in one transaction: the
// original entry is marked reversed, the kid's balance is adjusted by the
// negated amount, and a compensating penalty_reversed entry is appended.
// The original entry's content is otherwise untouched. Returns the
// compensating entry.
func (s *FamilyStore) ReverseHistoryEntry(entryID, familyID string) (*model.HistoryEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		`SELECT `+historyCols+` FROM history WHERE id = ? AND family_id = ?`,
		entryID, familyID,
	)
	orig, err := scanHistoryEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	if !orig.Reversible() {
		return nil, ErrAlreadyReversed
	}

	// The reversed-guard in the WHERE clause closes the race with a
	// concurrent reversal of the same entry.
	res, err := tx.Exec(
		`UPDATE history SET reversed = 1 WHERE id = ? AND family_id = ? AND reversed = 0`,
		entryID, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark reversed: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("mark reversed: %w", err)
	} else if n == 0 {
		return nil, ErrAlreadyReversed
	}

	if _, err := tx.Exec(
		`UPDATE kids SET coins = coins - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		orig.Amount, orig.KidID, familyID,
	); err != nil {
		return nil, fmt.Errorf("adjust kid coins: %w", err)
	}

	comp := &model.HistoryEntry{
		ID:         uuid.NewString(),
		Type:       model.HistoryPenaltyReversed,
		KidID:      orig.KidID,
		Title:      fmt.Sprintf("Reversed: %s", orig.Title),
		Amount:     -orig.Amount,
		OccurredAt: time.Now().UTC(),
	}
	if _, err := tx.Exec(
		`INSERT INTO history (id, family_id, type, kid_id, title, amount, occurred_at, reversed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		comp.ID, familyID, string(comp.Type), comp.KidID, comp.Title, comp.Amount, comp.OccurredAt,
	); err != nil {
		return nil, fmt.Errorf("insert compensating entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return comp, nil
}
