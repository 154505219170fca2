package model

import "time"

type HistoryType string

const (
	HistoryChoreCompleted  HistoryType = "chore_completed"
	HistoryChoreMissed     HistoryType = "chore_missed"
	HistoryRewardRedeemed  HistoryType = "reward_redeemed"
	HistoryPenaltyReversed HistoryType = "penalty_reversed"
)

// HistoryEntry is an immutable ledger record of a coin change. The only
// permitted mutation is flipping Reversed to true, once.
type HistoryEntry struct {
	ID           string      `json:"id"`
	Type         HistoryType `json:"type"`
	KidID        string      `json:"kid_id"`
	Title        string      `json:"title"`
	Amount       int         `json:"amount"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Reversed     bool        `json:"reversed"`
	SubmissionID *string     `json:"submission_id,omitempty"`
	EvidencePath *string     `json:"evidence_path,omitempty"`
}

// Reversible reports whether the entry may still be undone. Compensating
// entries are never themselves reversible.
func (e *HistoryEntry) Reversible() bool {
	return !e.Reversed && e.Type != HistoryPenaltyReversed
}
