package session

import (
	"slices"
	"time"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/schedule"
	"github.com/google/uuid"
)

// runOverdueSweepLocked settles every overdue chore in one pass: each
// assigned kid is debited the chore's punishment coins, a missed entry is
// recorded per kid, and the chore is rescheduled past today (or removed
// when it was a one-off). Only parent sessions sweep, so a kid device never
// races a parent over the same penalties. Runs after every snapshot load.
func (c *Coordinator) runOverdueSweepLocked() {
	if c.sweepInFlight {
		return
	}
	c.sweepInFlight = true
	defer func() { c.sweepInFlight = false }()

	today := c.now()
	changed := false
	var deleted []string

	for i := range c.chores {
		chore := &c.chores[i]
		if !schedule.IsOverdue(*chore, today) {
			continue
		}

		if chore.PunishmentCoins > 0 {
			c.applyMissedPenaltyLocked(*chore, today)
		}

		if chore.Frequency == model.FrequencyOnce {
			deleted = append(deleted, chore.ID)
		} else {
			chore.DueDate = schedule.NextDueDate(chore.Frequency, chore.DueDate, today)
			chore.UpdatedAt = today.UTC()
		}
		changed = true
	}

	if len(deleted) > 0 {
		c.chores = slices.DeleteFunc(c.chores, func(ch model.Chore) bool {
			return slices.Contains(deleted, ch.ID)
		})
	}
	if changed {
		c.markDirtyLocked(collectionChores)
		c.notifyLocked()
	}
}

// applyMissedPenaltyLocked debits each assigned kid and records the missed
// entry. A kid who has since been deleted is skipped. Store failures are
// logged and the sweep moves on; a penalty is never worth wedging the
// session.
func (c *Coordinator) applyMissedPenaltyLocked(chore model.Chore, today time.Time) {
	title := "Missed: " + chore.Name + " (due " + chore.DueDate.Format("2006-01-02") + ")"
	for _, kidID := range chore.AssigneeIDs {
		kid, err := c.kidByIDLocked(kidID)
		if err != nil {
			continue
		}

		if err := c.store.UpdateKidCoins(kidID, -chore.PunishmentCoins, c.family.ID); err != nil {
			c.logger.Error("apply missed penalty", "chore_id", chore.ID, "kid_id", kidID, "error", err)
			continue
		}
		entry := model.HistoryEntry{
			ID:         uuid.NewString(),
			Type:       model.HistoryChoreMissed,
			KidID:      kidID,
			Title:      title,
			Amount:     -chore.PunishmentCoins,
			OccurredAt: today.UTC(),
		}
		if err := c.store.AddHistoryEntry(&entry, c.family.ID); err != nil {
			c.logger.Error("record missed entry", "chore_id", chore.ID, "kid_id", kidID, "error", err)
		}
		kid.Coins -= chore.PunishmentCoins
		kid.UpdatedAt = today.UTC()
	}
}
