package model

import (
	"errors"
	"time"
)

type SubmissionKind string

const (
	SubmissionChore  SubmissionKind = "chore"
	SubmissionReward SubmissionKind = "reward"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Decision records who reviewed a submission and when.
type Decision struct {
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name"`
	DecidedAt    time.Time `json:"decided_at"`
	Note         string    `json:"note,omitempty"`
}

// Submission is a kid-initiated request awaiting a parent decision: either
// chore evidence (positive delta, credited on approval) or a reward
// redemption (negative delta, debited on approval).
type Submission struct {
	ID           string           `json:"id"`
	Kind         SubmissionKind   `json:"kind"`
	KidID        string           `json:"kid_id"`
	KidName      string           `json:"kid_name"`
	ChoreID      *string          `json:"chore_id,omitempty"`
	RewardID     *string          `json:"reward_id,omitempty"`
	Delta        int              `json:"delta"`
	EvidencePath *string          `json:"evidence_path,omitempty"`
	Status       SubmissionStatus `json:"status"`
	Decision     *Decision        `json:"decision,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (s *Submission) Pending() bool {
	return s.Status == SubmissionPending
}

func (s *Submission) Validate() error {
	switch s.Kind {
	case SubmissionChore:
		if s.Delta < 0 {
			return errors.New("chore submission delta must not be negative")
		}
		if s.ChoreID == nil {
			return errors.New("chore submission requires a chore reference")
		}
	case SubmissionReward:
		if s.Delta > 0 {
			return errors.New("reward submission delta must not be positive")
		}
		if s.RewardID == nil {
			return errors.New("reward submission requires a reward reference")
		}
		if s.EvidencePath != nil {
			return errors.New("reward submission carries no evidence")
		}
	default:
		return errors.New("invalid submission kind")
	}
	if s.KidID == "" {
		return errors.New("submission requires a kid")
	}
	return nil
}
