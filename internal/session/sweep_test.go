package session

import (
	"context"
	"testing"
	"time"

	"github.com/fennwick/hearth/internal/identity"
	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/schedule"
)

func seedSnapshot(fs *fakeStore, familyID string, kids []model.Kid, chores []model.Chore) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	snap := fs.snapshots[familyID]
	snap.Kids = kids
	snap.Chores = chores
}

func TestSweepSettlesOverdueWeeklyChore(t *testing.T) {
	fs := newFakeStore()
	c := seedParentSession(t, fs)

	today := time.Now()
	due := today.AddDate(0, 0, -14)
	seedSnapshot(fs, "fam-Hill",
		[]model.Kid{{ID: "kid-1", Name: "Nova", Coins: 10}},
		[]model.Chore{{
			ID:              "chore-1",
			Name:            "Laundry",
			AssigneeIDs:     []string{"kid-1"},
			DueDate:         due,
			RewardCoins:     10,
			PunishmentCoins: 5,
			Frequency:       model.FrequencyWeekly,
		}},
	)

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// One penalty per sweep regardless of how many periods were missed.
	fs.mu.Lock()
	deltas := append([]coinDelta(nil), fs.coinDeltas...)
	history := append([]model.HistoryEntry(nil), fs.history...)
	fs.mu.Unlock()
	if len(deltas) != 1 || deltas[0].kidID != "kid-1" || deltas[0].delta != -5 {
		t.Fatalf("coin deltas = %+v, want one -5 for kid-1", deltas)
	}
	if len(history) != 1 {
		t.Fatalf("history = %+v, want one entry", history)
	}
	if history[0].Type != model.HistoryChoreMissed || history[0].Amount != -5 {
		t.Fatalf("entry = %+v, want chore_missed -5", history[0])
	}

	state := c.CurrentState()
	if state.Kids[0].Coins != 5 {
		t.Fatalf("local balance = %d, want 5", state.Kids[0].Coins)
	}

	// 14 days late: the due date skips both missed weeks and lands on the
	// first occurrence strictly after today.
	gotDue := state.Chores[0].DueDate
	wantDue := schedule.StartOfDay(today).AddDate(0, 0, 7)
	if !schedule.StartOfDay(gotDue).Equal(wantDue) {
		t.Fatalf("due = %s, want day %s", gotDue, wantDue)
	}
}

func TestSweepSkipsPausedChores(t *testing.T) {
	fs := newFakeStore()
	c := seedParentSession(t, fs)

	due := time.Now().AddDate(0, 0, -3)
	seedSnapshot(fs, "fam-Hill",
		[]model.Kid{{ID: "kid-1", Name: "Nova", Coins: 10}},
		[]model.Chore{{
			ID:              "chore-1",
			Name:            "Laundry",
			AssigneeIDs:     []string{"kid-1"},
			DueDate:         due,
			PunishmentCoins: 5,
			Frequency:       model.FrequencyDaily,
			Paused:          true,
		}},
	)

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.coinDeltas) != 0 {
		t.Fatalf("coin deltas = %+v, want none for a paused chore", fs.coinDeltas)
	}
	state := c.CurrentState()
	if !state.Chores[0].DueDate.Equal(due) {
		t.Fatal("paused chore due date must not move")
	}
}

func TestSweepDeletesMissedOnceChore(t *testing.T) {
	fs := newFakeStore()
	c := seedParentSession(t, fs)

	seedSnapshot(fs, "fam-Hill",
		[]model.Kid{{ID: "kid-1", Name: "Nova", Coins: 3}},
		[]model.Chore{{
			ID:              "chore-1",
			Name:            "Recycling run",
			AssigneeIDs:     []string{"kid-1"},
			DueDate:         time.Now().AddDate(0, 0, -1),
			PunishmentCoins: 2,
			Frequency:       model.FrequencyOnce,
		}},
	)

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	state := c.CurrentState()
	if len(state.Chores) != 0 {
		t.Fatalf("chores = %+v, want the one-off removed", state.Chores)
	}
	if state.Kids[0].Coins != 1 {
		t.Fatalf("balance = %d, want 1", state.Kids[0].Coins)
	}
}

func TestSweepAdvancesWithoutPenaltyWhenPunishmentZero(t *testing.T) {
	fs := newFakeStore()
	c := seedParentSession(t, fs)

	seedSnapshot(fs, "fam-Hill",
		[]model.Kid{{ID: "kid-1", Name: "Nova", Coins: 10}},
		[]model.Chore{{
			ID:          "chore-1",
			Name:        "Water plants",
			AssigneeIDs: []string{"kid-1"},
			DueDate:     time.Now().AddDate(0, 0, -2),
			Frequency:   model.FrequencyDaily,
		}},
	)

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fs.mu.Lock()
	deltas := len(fs.coinDeltas)
	entries := len(fs.history)
	fs.mu.Unlock()
	if deltas != 0 || entries != 0 {
		t.Fatalf("got %d deltas %d entries, want none", deltas, entries)
	}

	state := c.CurrentState()
	if !schedule.StartOfDay(state.Chores[0].DueDate).After(schedule.StartOfDay(time.Now())) {
		t.Fatalf("due = %s, want strictly after today", state.Chores[0].DueDate)
	}
}

func TestSweepDoesNotRunForKidSessions(t *testing.T) {
	fs := newFakeStore()
	fam, err := fs.CreateFamily("Hill", "someone-else")
	if err != nil {
		t.Fatalf("seed family: %v", err)
	}
	seedSnapshot(fs, fam.ID,
		[]model.Kid{{ID: "kid-1", Name: "Nova", Coins: 10}},
		[]model.Chore{{
			ID:              "chore-1",
			Name:            "Laundry",
			AssigneeIDs:     []string{"kid-1"},
			DueDate:         time.Now().AddDate(0, 0, -7),
			PunishmentCoins: 5,
			Frequency:       model.FrequencyWeekly,
		}},
	)

	provider := &fakeProvider{current: &identity.Identity{ID: "kid-user", Name: "Nova"}}
	c := newTestCoordinator(t, provider, fs)
	c.Bootstrap(context.Background())
	if err := c.JoinFamily(fam.InviteCode, model.RoleKid); err != nil {
		t.Fatalf("JoinFamily: %v", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.coinDeltas) != 0 {
		t.Fatalf("kid session applied penalties: %+v", fs.coinDeltas)
	}
}
