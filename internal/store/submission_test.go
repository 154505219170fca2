package store

import (
	"errors"
	"testing"
	"time"

	"github.com/fennwick/hearth/internal/model"
	"github.com/google/uuid"
)

func pendingRedemption(kidID string) *model.Submission {
	rewardID := uuid.NewString()
	return &model.Submission{
		ID:        uuid.NewString(),
		Kind:      model.SubmissionReward,
		KidID:     kidID,
		KidName:   "Ada",
		RewardID:  &rewardID,
		Delta:     -40,
		Status:    model.SubmissionPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	sub := pendingRedemption("kid-1")
	if err := s.CreateSubmission(sub, family.ID); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	got, err := s.GetSubmission(sub.ID, family.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got == nil || !got.Pending() {
		t.Fatalf("submission = %+v, want pending", got)
	}
	if got.Delta != -40 {
		t.Errorf("delta = %d, want -40", got.Delta)
	}

	d := model.Decision{ReviewerID: "user-1", ReviewerName: "Dana", DecidedAt: time.Now().UTC()}
	if err := s.UpdateSubmissionStatus(sub.ID, family.ID, model.SubmissionApproved, d); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err = s.GetSubmission(sub.ID, family.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != model.SubmissionApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.Decision == nil || got.Decision.ReviewerName != "Dana" {
		t.Errorf("decision = %+v, want reviewer Dana", got.Decision)
	}
}

func TestSubmissionStatusTransitionIsOneWay(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	sub := pendingRedemption("kid-1")
	if err := s.CreateSubmission(sub, family.ID); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	d := model.Decision{ReviewerID: "user-1", DecidedAt: time.Now().UTC()}
	if err := s.UpdateSubmissionStatus(sub.ID, family.ID, model.SubmissionRejected, d); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := s.UpdateSubmissionStatus(sub.ID, family.ID, model.SubmissionApproved, d); !errors.Is(err, ErrNotFound) {
		t.Errorf("re-decide err = %v, want ErrNotFound", err)
	}
}

func TestCancelSubmissionOnlyWhilePending(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	sub := pendingRedemption("kid-1")
	if err := s.CreateSubmission(sub, family.ID); err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if err := s.CancelSubmission(sub.ID, family.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, err := s.GetSubmission(sub.ID, family.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got != nil {
		t.Error("cancelled submission should be deleted outright")
	}

	decided := pendingRedemption("kid-1")
	if err := s.CreateSubmission(decided, family.ID); err != nil {
		t.Fatalf("create submission: %v", err)
	}
	d := model.Decision{ReviewerID: "user-1", DecidedAt: time.Now().UTC()}
	if err := s.UpdateSubmissionStatus(decided.ID, family.ID, model.SubmissionApproved, d); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.CancelSubmission(decided.ID, family.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cancel decided err = %v, want ErrNotFound", err)
	}
}

func TestFetchSubmissionsPendingFirst(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	older := pendingRedemption("kid-1")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if err := s.CreateSubmission(older, family.ID); err != nil {
		t.Fatalf("create: %v", err)
	}
	d := model.Decision{ReviewerID: "user-1", DecidedAt: time.Now().UTC()}
	if err := s.UpdateSubmissionStatus(older.ID, family.ID, model.SubmissionApproved, d); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pending := pendingRedemption("kid-1")
	if err := s.CreateSubmission(pending, family.ID); err != nil {
		t.Fatalf("create: %v", err)
	}

	subs, err := s.FetchSubmissions(family.ID)
	if err != nil {
		t.Fatalf("fetch submissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs))
	}
	if subs[0].ID != pending.ID {
		t.Errorf("first submission = %q, want the pending one", subs[0].ID)
	}
}

func TestCreateSubmissionRejectsWrongSign(t *testing.T) {
	s := setupTestStore(t)
	_, family := seedFamily(t, s)

	sub := pendingRedemption("kid-1")
	sub.Delta = 40 // redemptions debit, never credit
	if err := s.CreateSubmission(sub, family.ID); err == nil {
		t.Error("expected error for positive redemption delta")
	}
}
