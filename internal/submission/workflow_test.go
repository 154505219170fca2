package submission

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/fennwick/hearth/internal/blob"
	"github.com/fennwick/hearth/internal/model"
)

// fakeLedger records workflow writes in memory.
type fakeLedger struct {
	statuses   map[string]model.SubmissionStatus
	decisions  map[string]model.Decision
	cancelled  []string
	coins      map[string]int
	history    []model.HistoryEntry
	failCoins  error
	failStatus error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		statuses:  make(map[string]model.SubmissionStatus),
		decisions: make(map[string]model.Decision),
		coins:     make(map[string]int),
	}
}

func (f *fakeLedger) UpdateSubmissionStatus(id, _ string, status model.SubmissionStatus, d model.Decision) error {
	if f.failStatus != nil {
		return f.failStatus
	}
	f.statuses[id] = status
	f.decisions[id] = d
	return nil
}

func (f *fakeLedger) CancelSubmission(id, _ string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeLedger) UpdateKidCoins(kidID string, delta int, _ string) error {
	if f.failCoins != nil {
		return f.failCoins
	}
	f.coins[kidID] += delta
	return nil
}

func (f *fakeLedger) AddHistoryEntry(e *model.HistoryEntry, _ string) error {
	f.history = append(f.history, *e)
	return nil
}

func testWorkflow(t *testing.T) (*Workflow, *fakeLedger, *blob.MemoryStore) {
	t.Helper()
	ledger := newFakeLedger()
	blobs := blob.NewMemoryStore()
	w := NewWorkflow(ledger, blobs, slog.Default())
	w.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return w, ledger, blobs
}

func testChore(freq model.Frequency) model.Chore {
	return model.Chore{
		ID: "chore-1", Name: "Dishes",
		AssigneeIDs: []string{"kid-1"},
		DueDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		RewardCoins: 5, PunishmentCoins: 2,
		Frequency: freq,
	}
}

func TestApproveChoreSubmission(t *testing.T) {
	w, ledger, _ := testWorkflow(t)
	chore := testChore(model.FrequencyDaily)
	kid := model.Kid{ID: "kid-1", Name: "Ada", Coins: 10}

	sub := NewChoreSubmission(kid, chore, "fam-1/ev.jpg")
	if sub.Delta != 5 {
		t.Fatalf("delta = %d, want reward coins 5", sub.Delta)
	}

	outcome, err := w.Approve("fam-1", *sub, &chore, chore.Name, "parent-1", "Dana")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if ledger.coins["kid-1"] != 5 {
		t.Errorf("coins delta = %d, want 5", ledger.coins["kid-1"])
	}
	if ledger.statuses[sub.ID] != model.SubmissionApproved {
		t.Errorf("status = %q, want approved", ledger.statuses[sub.ID])
	}
	if len(ledger.history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(ledger.history))
	}
	entry := ledger.history[0]
	if entry.Type != model.HistoryChoreCompleted || entry.Amount != 5 {
		t.Errorf("entry = %+v, want chore_completed amount 5", entry)
	}
	if entry.SubmissionID == nil || *entry.SubmissionID != sub.ID {
		t.Error("entry should link back to the submission")
	}

	if outcome.ChoreDeleted {
		t.Error("daily chore must not be deleted")
	}
	if outcome.UpdatedChore == nil {
		t.Fatal("expected advanced chore")
	}
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !outcome.UpdatedChore.DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", outcome.UpdatedChore.DueDate, want)
	}
}

func TestApproveOnceChoreDeletes(t *testing.T) {
	w, _, _ := testWorkflow(t)
	chore := testChore(model.FrequencyOnce)
	kid := model.Kid{ID: "kid-1", Name: "Ada"}

	sub := NewChoreSubmission(kid, chore, "")
	outcome, err := w.Approve("fam-1", *sub, &chore, chore.Name, "parent-1", "Dana")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !outcome.ChoreDeleted {
		t.Error("once chore should be deleted on approval")
	}
	if outcome.UpdatedChore != nil {
		t.Error("once chore should not be rescheduled")
	}
}

func TestApproveRewardRedemption(t *testing.T) {
	w, ledger, _ := testWorkflow(t)
	kid := model.Kid{ID: "kid-1", Name: "Ada", Coins: 40}
	reward := model.Reward{ID: "reward-1", Name: "Movie night", Cost: 40}

	sub := NewRewardSubmission(kid, reward)
	if sub.Delta != -40 {
		t.Fatalf("delta = %d, want -40", sub.Delta)
	}

	outcome, err := w.Approve("fam-1", *sub, nil, reward.Name, "parent-1", "Dana")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if ledger.coins["kid-1"] != -40 {
		t.Errorf("coins delta = %d, want -40 (40 - 40 = 0 balance)", ledger.coins["kid-1"])
	}
	if outcome.Entry.Type != model.HistoryRewardRedeemed || outcome.Entry.Amount != -40 {
		t.Errorf("entry = %+v, want reward_redeemed amount -40", outcome.Entry)
	}
}

func TestApproveAlreadyDecided(t *testing.T) {
	w, _, _ := testWorkflow(t)
	kid := model.Kid{ID: "kid-1"}
	sub := NewRewardSubmission(kid, model.Reward{ID: "r", Name: "X", Cost: 1})
	sub.Status = model.SubmissionApproved

	if _, err := w.Approve("fam-1", *sub, nil, "X", "p", "Dana"); !errors.Is(err, ErrNotPending) {
		t.Errorf("err = %v, want ErrNotPending", err)
	}
}

func TestRejectLeavesBalanceAndDeletesEvidence(t *testing.T) {
	w, ledger, blobs := testWorkflow(t)
	chore := testChore(model.FrequencyWeekly)
	kid := model.Kid{ID: "kid-1", Name: "Ada"}

	if _, err := blobs.Upload(t.Context(), []byte("img"), "fam-1/ev.jpg", "image/jpeg"); err != nil {
		t.Fatalf("seed evidence: %v", err)
	}
	sub := NewChoreSubmission(kid, chore, "fam-1/ev.jpg")

	if err := w.Reject("fam-1", *sub, "parent-1", "Dana", "blurry photo"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if ledger.coins["kid-1"] != 0 {
		t.Errorf("coins delta = %d, want 0 on rejection", ledger.coins["kid-1"])
	}
	if len(ledger.history) != 0 {
		t.Errorf("history = %d entries, want none on rejection", len(ledger.history))
	}
	if ledger.decisions[sub.ID].Note != "blurry photo" {
		t.Errorf("note = %q, want recorded", ledger.decisions[sub.ID].Note)
	}
	if _, ok := blobs.Get("fam-1/ev.jpg"); ok {
		t.Error("evidence should be deleted on rejection")
	}
}

func TestCancelRules(t *testing.T) {
	w, ledger, _ := testWorkflow(t)
	kid := model.Kid{ID: "kid-1", Name: "Ada"}
	redemption := NewRewardSubmission(kid, model.Reward{ID: "r", Name: "X", Cost: 5})
	evidence := NewChoreSubmission(kid, testChore(model.FrequencyDaily), "")

	if err := w.Cancel("fam-1", *evidence, "kid-1"); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("chore cancel err = %v, want ErrNotCancellable", err)
	}
	if err := w.Cancel("fam-1", *redemption, "kid-2"); !errors.Is(err, ErrNotRequester) {
		t.Errorf("other-kid cancel err = %v, want ErrNotRequester", err)
	}

	decided := *redemption
	decided.Status = model.SubmissionRejected
	if err := w.Cancel("fam-1", decided, "kid-1"); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("decided cancel err = %v, want ErrNotCancellable", err)
	}

	if err := w.Cancel("fam-1", *redemption, "kid-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(ledger.cancelled) != 1 || ledger.cancelled[0] != redemption.ID {
		t.Errorf("cancelled = %v, want [%s]", ledger.cancelled, redemption.ID)
	}
}
