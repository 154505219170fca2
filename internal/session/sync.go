package session

import (
	"time"

	"github.com/fennwick/hearth/internal/model"
)

// collection names a debounced outbound sync target.
type collection string

const (
	collectionKids    collection = "kids"
	collectionChores  collection = "chores"
	collectionRewards collection = "rewards"
)

// markDirtyLocked schedules a push of the collection after the debounce
// window. Re-marking an already dirty collection restarts its timer, so a
// burst of edits collapses into one push.
func (c *Coordinator) markDirtyLocked(kind collection) {
	if c.syncSuspended || c.family == nil {
		return
	}
	if t, ok := c.dirtyTimers[kind]; ok {
		t.Stop()
	}
	c.dirtyTimers[kind] = time.AfterFunc(c.debounce, func() {
		c.flush(kind)
	})
}

// flush pushes one collection wholesale. The suspension and role checks
// are re-evaluated at fire time: the session may have changed since the
// timer was armed, and a suspended or kid session must never push.
func (c *Coordinator) flush(kind collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dirtyTimers, kind)

	if c.syncSuspended || c.family == nil {
		return
	}
	if c.profile == nil || c.profile.Role == nil || *c.profile.Role != model.RoleParent {
		return
	}

	var err error
	switch kind {
	case collectionKids:
		err = c.store.SaveKids(append([]model.Kid(nil), c.kids...), c.family.ID)
	case collectionChores:
		err = c.store.SaveChores(append([]model.Chore(nil), c.chores...), c.family.ID)
	case collectionRewards:
		err = c.store.SaveRewards(append([]model.Reward(nil), c.rewards...), c.family.ID)
	}
	if err != nil {
		c.logger.Error("push collection", "collection", string(kind), "error", err)
		c.lastError = "Could not save changes. They will retry on the next edit."
		c.notifyLocked()
		return
	}
	c.logger.Debug("pushed collection", "collection", string(kind))
}

// FlushPending forces every armed collection push to run now. Used on
// graceful shutdown so debounced edits are not lost.
func (c *Coordinator) FlushPending() {
	c.mu.Lock()
	var kinds []collection
	for kind, t := range c.dirtyTimers {
		t.Stop()
		kinds = append(kinds, kind)
	}
	c.mu.Unlock()

	for _, kind := range kinds {
		c.flush(kind)
	}
}
