package store

import (
	"errors"
	"testing"
	"time"

	"github.com/fennwick/hearth/internal/model"
	"github.com/google/uuid"
)

func TestReverseHistoryEntry(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	kid := testKid("Ada", 10)
	if err := s.SaveKids([]model.Kid{kid}, family.ID); err != nil {
		t.Fatalf("save kids: %v", err)
	}

	entry := &model.HistoryEntry{
		ID:         uuid.NewString(),
		Type:       model.HistoryChoreMissed,
		KidID:      kid.ID,
		Title:      "Missed: Dishes",
		Amount:     -5,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.AddHistoryEntry(entry, family.ID); err != nil {
		t.Fatalf("add history: %v", err)
	}
	if err := s.UpdateKidCoins(kid.ID, entry.Amount, family.ID); err != nil {
		t.Fatalf("apply penalty: %v", err)
	}

	comp, err := s.ReverseHistoryEntry(entry.ID, family.ID)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if comp.Type != model.HistoryPenaltyReversed {
		t.Errorf("type = %q, want penalty_reversed", comp.Type)
	}
	if comp.Amount != 5 {
		t.Errorf("amount = %d, want 5 (negated original)", comp.Amount)
	}

	kids, err := s.ListKids(family.ID)
	if err != nil {
		t.Fatalf("list kids: %v", err)
	}
	if kids[0].Coins != 10 {
		t.Errorf("coins = %d, want 10 (penalty undone)", kids[0].Coins)
	}

	entries, err := s.FetchHistory(family.ID)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("history = %d entries, want 2", len(entries))
	}
	var orig *model.HistoryEntry
	for i := range entries {
		if entries[i].ID == entry.ID {
			orig = &entries[i]
		}
	}
	if orig == nil {
		t.Fatal("original entry missing from history")
	}
	if !orig.Reversed {
		t.Error("original entry should be marked reversed")
	}
	if orig.Amount != -5 || orig.Title != "Missed: Dishes" {
		t.Error("original entry content must be untouched apart from the reversed flag")
	}
}

func TestReverseHistoryEntryTwice(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	kid := testKid("Ada", 0)
	if err := s.SaveKids([]model.Kid{kid}, family.ID); err != nil {
		t.Fatalf("save kids: %v", err)
	}

	entry := &model.HistoryEntry{
		ID: uuid.NewString(), Type: model.HistoryChoreCompleted,
		KidID: kid.ID, Title: "Dishes", Amount: 5, OccurredAt: time.Now().UTC(),
	}
	if err := s.AddHistoryEntry(entry, family.ID); err != nil {
		t.Fatalf("add history: %v", err)
	}

	if _, err := s.ReverseHistoryEntry(entry.ID, family.ID); err != nil {
		t.Fatalf("first reverse: %v", err)
	}
	if _, err := s.ReverseHistoryEntry(entry.ID, family.ID); !errors.Is(err, ErrAlreadyReversed) {
		t.Errorf("second reverse err = %v, want ErrAlreadyReversed", err)
	}
}

func TestReverseCompensatingEntryRejected(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	kid := testKid("Ada", 0)
	if err := s.SaveKids([]model.Kid{kid}, family.ID); err != nil {
		t.Fatalf("save kids: %v", err)
	}

	entry := &model.HistoryEntry{
		ID: uuid.NewString(), Type: model.HistoryChoreMissed,
		KidID: kid.ID, Title: "Missed: Sweep", Amount: -3, OccurredAt: time.Now().UTC(),
	}
	if err := s.AddHistoryEntry(entry, family.ID); err != nil {
		t.Fatalf("add history: %v", err)
	}

	comp, err := s.ReverseHistoryEntry(entry.ID, family.ID)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if _, err := s.ReverseHistoryEntry(comp.ID, family.ID); !errors.Is(err, ErrAlreadyReversed) {
		t.Errorf("reversing a penalty_reversed entry: err = %v, want ErrAlreadyReversed", err)
	}
}

func TestReverseUnknownEntry(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	if _, err := s.ReverseHistoryEntry("missing", family.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
