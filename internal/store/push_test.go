package store

import (
	"testing"

	"github.com/fennwick/hearth/internal/model"
)

func TestPushSubscriptionRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	owner, _ := seedFamily(t, s)

	sub := &model.PushSubscription{
		ID:        "sub-1",
		UserID:    owner.ID,
		Endpoint:  "https://push.example/ep1",
		P256dhKey: "p256dh-key",
		AuthKey:   "auth-key",
	}
	if err := s.SavePushSubscription(sub); err != nil {
		t.Fatalf("save subscription: %v", err)
	}

	subs, err := s.ListPushSubscriptions(owner.ID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 || subs[0].Endpoint != sub.Endpoint {
		t.Fatalf("subs = %+v, want one with endpoint %s", subs, sub.Endpoint)
	}

	if err := s.DeletePushSubscription("sub-1"); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	subs, err = s.ListPushSubscriptions(owner.ID)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("subs = %+v, want none", subs)
	}
}

func TestResubscribeSameEndpointReplacesKeys(t *testing.T) {
	s := setupTestStore(t)
	owner, _ := seedFamily(t, s)

	first := &model.PushSubscription{
		ID: "sub-1", UserID: owner.ID,
		Endpoint: "https://push.example/ep1", P256dhKey: "old", AuthKey: "old",
	}
	if err := s.SavePushSubscription(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := &model.PushSubscription{
		ID: "sub-2", UserID: owner.ID,
		Endpoint: "https://push.example/ep1", P256dhKey: "new", AuthKey: "new",
	}
	if err := s.SavePushSubscription(second); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}

	subs, err := s.ListPushSubscriptions(owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].P256dhKey != "new" {
		t.Fatalf("subs = %+v, want one with replaced keys", subs)
	}
}

func TestListFamilyPushSubscriptionsFiltersByRole(t *testing.T) {
	s := setupTestStore(t)
	owner, family := seedFamily(t, s)

	kidUser := &model.Profile{ID: "user-2", Name: "Nova"}
	if err := s.SaveProfile(kidUser); err != nil {
		t.Fatalf("save kid profile: %v", err)
	}
	if _, _, err := s.JoinFamily(family.InviteCode, kidUser.ID, model.RoleKid); err != nil {
		t.Fatalf("join family: %v", err)
	}

	for i, userID := range []string{owner.ID, kidUser.ID} {
		sub := &model.PushSubscription{
			ID:        "sub-" + string(rune('a'+i)),
			UserID:    userID,
			Endpoint:  "https://push.example/" + userID,
			P256dhKey: "k", AuthKey: "k",
		}
		if err := s.SavePushSubscription(sub); err != nil {
			t.Fatalf("save subscription: %v", err)
		}
	}

	parents, err := s.ListFamilyPushSubscriptions(family.ID, model.RoleParent)
	if err != nil {
		t.Fatalf("list parent subs: %v", err)
	}
	if len(parents) != 1 || parents[0].UserID != owner.ID {
		t.Fatalf("parent subs = %+v, want only the owner's", parents)
	}
}
