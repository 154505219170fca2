// Package submission governs how a kid's request — chore evidence or a
// reward redemption — moves through review and what it does to the coin
// ledger.
package submission

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fennwick/hearth/internal/blob"
	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/schedule"
	"github.com/google/uuid"
)

var (
	// ErrNotPending is returned when deciding a submission that has
	// already been decided.
	ErrNotPending = errors.New("submission is not pending")
	// ErrNotCancellable is returned when cancelling anything other than a
	// pending reward redemption.
	ErrNotCancellable = errors.New("submission cannot be cancelled")
	// ErrNotRequester is returned when someone other than the original
	// requester tries to cancel.
	ErrNotRequester = errors.New("only the requester may cancel")
)

// Ledger is the slice of the family store the workflow writes through.
type Ledger interface {
	UpdateSubmissionStatus(id, familyID string, status model.SubmissionStatus, d model.Decision) error
	CancelSubmission(id, familyID string) error
	UpdateKidCoins(kidID string, delta int, familyID string) error
	AddHistoryEntry(e *model.HistoryEntry, familyID string) error
}

// Workflow applies submission decisions and their ledger side effects.
type Workflow struct {
	ledger Ledger
	blobs  blob.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewWorkflow(ledger Ledger, blobs blob.Store, logger *slog.Logger) *Workflow {
	return &Workflow{
		ledger: ledger,
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
	}
}

// NewChoreSubmission builds a pending chore-evidence submission crediting
// the chore's reward coins on approval.
func NewChoreSubmission(kid model.Kid, chore model.Chore, evidencePath string) *model.Submission {
	sub := &model.Submission{
		ID:        uuid.NewString(),
		Kind:      model.SubmissionChore,
		KidID:     kid.ID,
		KidName:   kid.Name,
		ChoreID:   &chore.ID,
		Delta:     chore.RewardCoins,
		Status:    model.SubmissionPending,
		CreatedAt: time.Now().UTC(),
	}
	if evidencePath != "" {
		sub.EvidencePath = &evidencePath
	}
	return sub
}

// NewRewardSubmission builds a pending redemption debiting the reward's
// cost on approval.
func NewRewardSubmission(kid model.Kid, reward model.Reward) *model.Submission {
	return &model.Submission{
		ID:        uuid.NewString(),
		Kind:      model.SubmissionReward,
		KidID:     kid.ID,
		KidName:   kid.Name,
		RewardID:  &reward.ID,
		Delta:     -reward.Cost,
		Status:    model.SubmissionPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Outcome describes what an approval did beyond the status change.
type Outcome struct {
	Entry model.HistoryEntry
	// UpdatedChore carries the advanced due date for a recurring chore.
	UpdatedChore *model.Chore
	// ChoreDeleted is set for once chores, which are removed instead of
	// rescheduled.
	ChoreDeleted bool
}

// Approve stamps the decision, applies the submission's signed delta to
// the kid's balance, appends the matching history entry, and — for chore
// submissions — advances or removes the source chore. chore may be nil for
// reward redemptions or when the chore has since been deleted; title is
// the display name recorded on the ledger entry.
func (w *Workflow) Approve(familyID string, sub model.Submission, chore *model.Chore, title, reviewerID, reviewerName string) (*Outcome, error) {
	if !sub.Pending() {
		return nil, ErrNotPending
	}

	now := w.now().UTC()
	decision := model.Decision{ReviewerID: reviewerID, ReviewerName: reviewerName, DecidedAt: now}
	if err := w.ledger.UpdateSubmissionStatus(sub.ID, familyID, model.SubmissionApproved, decision); err != nil {
		return nil, fmt.Errorf("approve submission: %w", err)
	}

	if err := w.ledger.UpdateKidCoins(sub.KidID, sub.Delta, familyID); err != nil {
		return nil, fmt.Errorf("apply coin delta: %w", err)
	}

	entryType := model.HistoryChoreCompleted
	if sub.Kind == model.SubmissionReward {
		entryType = model.HistoryRewardRedeemed
	}
	entry := model.HistoryEntry{
		ID:           uuid.NewString(),
		Type:         entryType,
		KidID:        sub.KidID,
		Title:        title,
		Amount:       sub.Delta,
		OccurredAt:   now,
		SubmissionID: &sub.ID,
		EvidencePath: sub.EvidencePath,
	}
	if err := w.ledger.AddHistoryEntry(&entry, familyID); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}

	outcome := &Outcome{Entry: entry}
	if sub.Kind == model.SubmissionChore && chore != nil {
		if chore.Frequency == model.FrequencyOnce {
			outcome.ChoreDeleted = true
		} else {
			next := *chore
			next.DueDate = schedule.NextDueDate(chore.Frequency, chore.DueDate, now)
			next.UpdatedAt = now
			outcome.UpdatedChore = &next
		}
	}
	return outcome, nil
}

// Reject stamps the decision and note. No coins move; any attached
// evidence object is deleted best-effort.
func (w *Workflow) Reject(familyID string, sub model.Submission, reviewerID, reviewerName, note string) error {
	if !sub.Pending() {
		return ErrNotPending
	}

	decision := model.Decision{
		ReviewerID:   reviewerID,
		ReviewerName: reviewerName,
		DecidedAt:    w.now().UTC(),
		Note:         note,
	}
	if err := w.ledger.UpdateSubmissionStatus(sub.ID, familyID, model.SubmissionRejected, decision); err != nil {
		return fmt.Errorf("reject submission: %w", err)
	}

	if sub.EvidencePath != nil {
		w.deleteEvidence(*sub.EvidencePath)
	}
	return nil
}

// Cancel deletes a still-pending reward redemption at the requester's own
// request. Chore submissions cannot be cancelled.
func (w *Workflow) Cancel(familyID string, sub model.Submission, requesterID string) error {
	if sub.Kind != model.SubmissionReward {
		return ErrNotCancellable
	}
	if !sub.Pending() {
		return ErrNotCancellable
	}
	if sub.KidID != requesterID {
		return ErrNotRequester
	}
	if err := w.ledger.CancelSubmission(sub.ID, familyID); err != nil {
		return fmt.Errorf("cancel submission: %w", err)
	}
	return nil
}

func (w *Workflow) deleteEvidence(path string) {
	ctx, cancel := blobContext()
	defer cancel()
	if err := w.blobs.Delete(ctx, path); err != nil {
		w.logger.Warn("delete evidence", "path", path, "error", err)
	}
}
