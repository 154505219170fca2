package session

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"slices"
	"strings"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/store"
	"github.com/fennwick/hearth/internal/submission"
	"github.com/google/uuid"
)

// ErrInsufficientCoins is returned when a redemption would cost more than
// the kid's current balance.
var ErrInsufficientCoins = errors.New("not enough coins for this reward")

// AddKid appends a kid profile to the family roster.
func (c *Coordinator) AddKid(name, color string) (*model.Kid, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("kid name is required")
	}

	now := c.now().UTC()
	kid := model.Kid{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.kids = append(c.kids, kid)
	c.markDirtyLocked(collectionKids)
	c.notifyLocked()
	return &kid, nil
}

// UpdateKid replaces the kid's name and color. Coins are adjusted only
// through approvals, sweeps, and reversals, never edited directly.
func (c *Coordinator) UpdateKid(kidID, name, color string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	kid, err := c.kidByIDLocked(kidID)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("kid name is required")
	}

	kid.Name = name
	kid.Color = color
	kid.UpdatedAt = c.now().UTC()
	c.markDirtyLocked(collectionKids)
	c.notifyLocked()
	return nil
}

// DeleteKid removes the kid and unassigns them from every chore.
func (c *Coordinator) DeleteKid(kidID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	if _, err := c.kidByIDLocked(kidID); err != nil {
		return err
	}

	c.kids = slices.DeleteFunc(c.kids, func(k model.Kid) bool { return k.ID == kidID })
	c.markDirtyLocked(collectionKids)

	choresChanged := false
	for i := range c.chores {
		if c.chores[i].AssignedTo(kidID) {
			c.chores[i].AssigneeIDs = slices.DeleteFunc(c.chores[i].AssigneeIDs,
				func(id string) bool { return id == kidID })
			c.chores[i].UpdatedAt = c.now().UTC()
			choresChanged = true
		}
	}
	if choresChanged {
		c.markDirtyLocked(collectionChores)
	}
	c.notifyLocked()
	return nil
}

// AddChore adds a chore to the board. The due date is stored as given; the
// sweep and approval paths own all subsequent rescheduling.
func (c *Coordinator) AddChore(chore model.Chore) (*model.Chore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	chore.ID = uuid.NewString()
	chore.CreatedAt = now
	chore.UpdatedAt = now
	if err := chore.Validate(); err != nil {
		return nil, err
	}
	c.chores = append(c.chores, chore)
	c.markDirtyLocked(collectionChores)
	c.notifyLocked()
	return &chore, nil
}

// UpdateChore replaces an existing chore's editable fields.
func (c *Coordinator) UpdateChore(chore model.Chore) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	current, err := c.choreByIDLocked(chore.ID)
	if err != nil {
		return err
	}
	if err := chore.Validate(); err != nil {
		return err
	}

	chore.CreatedAt = current.CreatedAt
	chore.UpdatedAt = c.now().UTC()
	*current = chore
	c.markDirtyLocked(collectionChores)
	c.notifyLocked()
	return nil
}

func (c *Coordinator) DeleteChore(choreID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	if _, err := c.choreByIDLocked(choreID); err != nil {
		return err
	}
	c.chores = slices.DeleteFunc(c.chores, func(ch model.Chore) bool { return ch.ID == choreID })
	c.markDirtyLocked(collectionChores)
	c.notifyLocked()
	return nil
}

// SetChorePaused toggles a chore's paused flag. Paused chores keep their
// due date but are skipped by the overdue sweep.
func (c *Coordinator) SetChorePaused(choreID string, paused bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	chore, err := c.choreByIDLocked(choreID)
	if err != nil {
		return err
	}
	if chore.Paused == paused {
		return nil
	}
	chore.Paused = paused
	chore.UpdatedAt = c.now().UTC()
	c.markDirtyLocked(collectionChores)
	c.notifyLocked()
	return nil
}

func (c *Coordinator) AddReward(reward model.Reward) (*model.Reward, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return nil, err
	}

	reward.ID = uuid.NewString()
	reward.CreatedAt = c.now().UTC()
	if err := reward.Validate(); err != nil {
		return nil, err
	}
	c.rewards = append(c.rewards, reward)
	c.markDirtyLocked(collectionRewards)
	c.notifyLocked()
	return &reward, nil
}

func (c *Coordinator) UpdateReward(reward model.Reward) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	current, err := c.rewardByIDLocked(reward.ID)
	if err != nil {
		return err
	}
	if err := reward.Validate(); err != nil {
		return err
	}
	reward.CreatedAt = current.CreatedAt
	*current = reward
	c.markDirtyLocked(collectionRewards)
	c.notifyLocked()
	return nil
}

func (c *Coordinator) DeleteReward(rewardID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}
	if _, err := c.rewardByIDLocked(rewardID); err != nil {
		return err
	}
	c.rewards = slices.DeleteFunc(c.rewards, func(r model.Reward) bool { return r.ID == rewardID })
	c.markDirtyLocked(collectionRewards)
	c.notifyLocked()
	return nil
}

// SubmitChoreEvidence uploads the evidence image and files a pending chore
// submission for parent review. The chore must be assigned to the kid.
func (c *Coordinator) SubmitChoreEvidence(ctx context.Context, kidID, choreID string, evidence []byte, contentType string) (*model.Submission, error) {
	c.mu.Lock()
	if err := c.requireKidLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	kid, err := c.kidByIDLocked(kidID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	chore, err := c.choreByIDLocked(choreID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if !chore.AssignedTo(kidID) {
		c.mu.Unlock()
		return nil, fmt.Errorf("chore %s is not assigned to kid %s", choreID, kidID)
	}
	kidCopy := *kid
	choreCopy := *chore
	familyID := c.family.ID
	c.mu.Unlock()

	evidencePath := ""
	if len(evidence) > 0 {
		evidencePath = evidenceObjectPath(familyID, contentType)
		if _, err := c.blobs.Upload(ctx, evidence, evidencePath, contentType); err != nil {
			return nil, fmt.Errorf("upload evidence: %w", err)
		}
	}

	sub := submission.NewChoreSubmission(kidCopy, choreCopy, evidencePath)
	if err := c.store.CreateSubmission(sub, familyID); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	if c.notifier != nil {
		c.notifier.SubmissionCreated(familyID, *sub)
	}
	return sub, nil
}

// RedeemReward files a pending redemption. The cost is only debited if a
// parent approves, but the kid must be able to afford it now.
func (c *Coordinator) RedeemReward(kidID, rewardID string) (*model.Submission, error) {
	c.mu.Lock()
	if err := c.requireKidLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	kid, err := c.kidByIDLocked(kidID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	reward, err := c.rewardByIDLocked(rewardID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if kid.Coins < reward.Cost {
		c.mu.Unlock()
		return nil, ErrInsufficientCoins
	}
	kidCopy := *kid
	rewardCopy := *reward
	familyID := c.family.ID
	c.mu.Unlock()

	sub := submission.NewRewardSubmission(kidCopy, rewardCopy)
	if err := c.store.CreateSubmission(sub, familyID); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	if c.notifier != nil {
		c.notifier.SubmissionCreated(familyID, *sub)
	}
	return sub, nil
}

// ApproveSubmission applies the submission's ledger effects and folds the
// outcome back into the local collections.
func (c *Coordinator) ApproveSubmission(subID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}

	sub, err := c.store.GetSubmission(subID, c.family.ID)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("submission %s: %w", subID, store.ErrNotFound)
	}

	var chore *model.Chore
	var choreID string
	title := string(sub.Kind)
	if sub.Kind == model.SubmissionChore && sub.ChoreID != nil {
		choreID = *sub.ChoreID
		// The chore may have been deleted since the submission was filed;
		// approval still pays out, it just has nothing to reschedule.
		if ch, err := c.choreByIDLocked(choreID); err == nil {
			cp := *ch
			chore = &cp
			title = ch.Name
		}
	} else if sub.Kind == model.SubmissionReward && sub.RewardID != nil {
		if r, err := c.rewardByIDLocked(*sub.RewardID); err == nil {
			title = r.Name
		}
	}

	outcome, err := c.workflow.Approve(c.family.ID, *sub, chore, title, c.profile.ID, c.profile.Name)
	if err != nil {
		return err
	}

	if kid, err := c.kidByIDLocked(sub.KidID); err == nil {
		kid.Coins += sub.Delta
		kid.UpdatedAt = c.now().UTC()
	}
	switch {
	case outcome.ChoreDeleted:
		c.chores = slices.DeleteFunc(c.chores, func(ch model.Chore) bool { return ch.ID == choreID })
		c.markDirtyLocked(collectionChores)
	case outcome.UpdatedChore != nil:
		if ch, err := c.choreByIDLocked(outcome.UpdatedChore.ID); err == nil {
			*ch = *outcome.UpdatedChore
			c.markDirtyLocked(collectionChores)
		}
	}

	c.notifyDecidedLocked(sub, model.SubmissionApproved)
	c.notifyLocked()
	return nil
}

// RejectSubmission declines a pending submission with an optional note. No
// coins move.
func (c *Coordinator) RejectSubmission(subID, note string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return err
	}

	sub, err := c.store.GetSubmission(subID, c.family.ID)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("submission %s: %w", subID, store.ErrNotFound)
	}
	if err := c.workflow.Reject(c.family.ID, *sub, c.profile.ID, c.profile.Name, note); err != nil {
		return err
	}
	c.notifyDecidedLocked(sub, model.SubmissionRejected)
	c.notifyLocked()
	return nil
}

// CancelSubmission withdraws a still-pending redemption on behalf of the
// kid who filed it.
func (c *Coordinator) CancelSubmission(subID, requesterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.family == nil {
		return ErrNoFamily
	}

	sub, err := c.store.GetSubmission(subID, c.family.ID)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("submission %s: %w", subID, store.ErrNotFound)
	}
	return c.workflow.Cancel(c.family.ID, *sub, requesterID)
}

// Submissions lists the family's submissions, pending first.
func (c *Coordinator) Submissions() ([]model.Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.family == nil {
		return nil, ErrNoFamily
	}
	return c.store.FetchSubmissions(c.family.ID)
}

// History lists the family's ledger entries, newest first.
func (c *Coordinator) History() ([]model.HistoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.family == nil {
		return nil, ErrNoFamily
	}
	return c.store.FetchHistory(c.family.ID)
}

// ReverseHistory undoes a ledger entry: the store flips its reversed flag,
// applies the opposite coin delta, and appends a compensating entry. The
// local kid balance is folded in from the compensation.
func (c *Coordinator) ReverseHistory(entryID string) (*model.HistoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireParentLocked(); err != nil {
		return nil, err
	}

	comp, err := c.store.ReverseHistoryEntry(entryID, c.family.ID)
	if err != nil {
		return nil, err
	}
	if kid, err := c.kidByIDLocked(comp.KidID); err == nil {
		kid.Coins += comp.Amount
		kid.UpdatedAt = c.now().UTC()
	}
	c.notifyLocked()
	return comp, nil
}

// Leaderboard returns the kids ordered by balance, richest first, ties
// broken by name.
func (c *Coordinator) Leaderboard() []model.Kid {
	c.mu.Lock()
	defer c.mu.Unlock()
	ranked := append([]model.Kid(nil), c.kids...)
	slices.SortStableFunc(ranked, func(a, b model.Kid) int {
		if a.Coins != b.Coins {
			return b.Coins - a.Coins
		}
		return strings.Compare(a.Name, b.Name)
	})
	return ranked
}

func (c *Coordinator) notifyDecidedLocked(sub *model.Submission, status model.SubmissionStatus) {
	if c.notifier == nil {
		return
	}
	decided := *sub
	decided.Status = status
	c.notifier.SubmissionDecided(c.family.ID, decided)
}

// evidenceObjectPath builds a unique blob key under the family's evidence
// prefix, with an extension guessed from the content type.
func evidenceObjectPath(familyID, contentType string) string {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return familyID + "/evidence/" + uuid.NewString() + ext
}
