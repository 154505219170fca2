package store

import (
	"database/sql"
	"fmt"

	"github.com/fennwick/hearth/internal/model"
)

func scanSubmission(scanner interface{ Scan(...any) error }) (*model.Submission, error) {
	var sub model.Submission
	var choreID, rewardID, evidencePath sql.NullString
	var reviewerID, reviewerName, note sql.NullString
	var decidedAt sql.NullTime

	err := scanner.Scan(
		&sub.ID, &sub.Kind, &sub.KidID, &sub.KidName, &choreID, &rewardID,
		&sub.Delta, &evidencePath, &sub.Status,
		&reviewerID, &reviewerName, &decidedAt, &note, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if choreID.Valid {
		sub.ChoreID = &choreID.String
	}
	if rewardID.Valid {
		sub.RewardID = &rewardID.String
	}
	if evidencePath.Valid {
		sub.EvidencePath = &evidencePath.String
	}
	if reviewerID.Valid {
		sub.Decision = &model.Decision{
			ReviewerID:   reviewerID.String,
			ReviewerName: reviewerName.String,
			DecidedAt:    decidedAt.Time,
			Note:         note.String,
		}
	}
	return &sub, nil
}

const submissionCols = `id, kind, kid_id, kid_name, chore_id, reward_id, delta, evidence_path, status, reviewer_id, reviewer_name, decided_at, note, created_at`

func (s *FamilyStore) CreateSubmission(sub *model.Submission, familyID string) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	var choreID, rewardID, evidencePath sql.NullString
	if sub.ChoreID != nil {
		choreID = sql.NullString{String: *sub.ChoreID, Valid: true}
	}
	if sub.RewardID != nil {
		rewardID = sql.NullString{String: *sub.RewardID, Valid: true}
	}
	if sub.EvidencePath != nil {
		evidencePath = sql.NullString{String: *sub.EvidencePath, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO submissions (id, family_id, kind, kid_id, kid_name, chore_id, reward_id, delta, evidence_path, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, familyID, string(sub.Kind), sub.KidID, sub.KidName,
		choreID, rewardID, sub.Delta, evidencePath, string(sub.Status), sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// FetchSubmissions returns the family's submissions, pending first, newest
// within each group.
func (s *FamilyStore) FetchSubmissions(familyID string) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionCols+` FROM submissions WHERE family_id = ?
		 ORDER BY CASE status WHEN 'pending' THEN 0 ELSE 1 END, created_at DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *FamilyStore) GetSubmission(id, familyID string) (*model.Submission, error) {
	row := s.db.QueryRow(
		`SELECT `+submissionCols+` FROM submissions WHERE id = ? AND family_id = ?`,
		id, familyID,
	)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// UpdateSubmissionStatus stamps a decision onto a still-pending submission.
// The pending guard makes the transition one-way.
func (s *FamilyStore) UpdateSubmissionStatus(id, familyID string, status model.SubmissionStatus, d model.Decision) error {
	res, err := s.db.Exec(
		`UPDATE submissions SET status = ?, reviewer_id = ?, reviewer_name = ?, decided_at = ?, note = ?
		 WHERE id = ? AND family_id = ? AND status = 'pending'`,
		string(status), d.ReviewerID, d.ReviewerName, d.DecidedAt, d.Note, id, familyID,
	)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelSubmission deletes a still-pending submission outright.
func (s *FamilyStore) CancelSubmission(id, familyID string) error {
	res, err := s.db.Exec(
		`DELETE FROM submissions WHERE id = ? AND family_id = ? AND status = 'pending'`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("cancel submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel submission: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
