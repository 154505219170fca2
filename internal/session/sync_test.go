package session

import (
	"context"
	"testing"
	"time"

	"github.com/fennwick/hearth/internal/blob"
	"github.com/fennwick/hearth/internal/identity"
	"github.com/fennwick/hearth/internal/model"
)

func TestDebouncedPushCollapsesBurst(t *testing.T) {
	fs := newFakeStore()
	c := seedParentSession(t, fs)

	if _, err := c.AddKid("Ada", "red"); err != nil {
		t.Fatalf("AddKid: %v", err)
	}
	if _, err := c.AddKid("Ben", "blue"); err != nil {
		t.Fatalf("AddKid: %v", err)
	}

	waitUntil(t, time.Second, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return len(fs.savedKids) > 0
	})

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.savedKids) != 1 {
		t.Fatalf("pushes = %d, want the burst collapsed into 1", len(fs.savedKids))
	}
	if got := len(fs.savedKids[0]); got != 2 {
		t.Fatalf("pushed %d kids, want 2", got)
	}
}

func TestCollectionsPushIndependently(t *testing.T) {
	fs := newFakeStore()
	c := seedParentSession(t, fs)

	if _, err := c.AddKid("Ada", "red"); err != nil {
		t.Fatalf("AddKid: %v", err)
	}
	if _, err := c.AddReward(model.Reward{Name: "Movie night", Cost: 40}); err != nil {
		t.Fatalf("AddReward: %v", err)
	}

	waitUntil(t, time.Second, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return len(fs.savedKids) == 1 && len(fs.savedRewards) == 1
	})

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.savedChores) != 0 {
		t.Fatalf("chores pushed %d times without being touched", len(fs.savedChores))
	}
}

func TestFlushPendingPushesImmediately(t *testing.T) {
	fs := newFakeStore()
	c := New(Config{
		Provider: &fakeProvider{current: &identity.Identity{ID: "user-1", Name: "Morgan"}},
		Store:    fs,
		Blobs:    blob.NewMemoryStore(),
		Logger:   testLogger(),
		Debounce: time.Hour, // would never fire on its own
	})
	c.Bootstrap(context.Background())
	if err := c.CreateFamily("Hill"); err != nil {
		t.Fatalf("CreateFamily: %v", err)
	}

	if _, err := c.AddKid("Ada", "red"); err != nil {
		t.Fatalf("AddKid: %v", err)
	}
	c.FlushPending()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.savedKids) != 1 {
		t.Fatalf("pushes = %d, want 1 after FlushPending", len(fs.savedKids))
	}
}
