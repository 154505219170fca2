package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fennwick/hearth/internal/model"
)

const deliverTimeout = 10 * time.Second

// sender is the delivery half of Service, split out so tests can fake it.
type sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

// SubscriptionStore is the slice of the family store the notifier reads
// endpoints from.
type SubscriptionStore interface {
	ListFamilyPushSubscriptions(familyID string, role model.Role) ([]model.PushSubscription, error)
	DeletePushSubscription(id string) error
}

// Notifier fans submission lifecycle events out to the relevant family
// members' devices. Delivery happens on background goroutines; callers
// never block on the push service.
type Notifier struct {
	sender sender
	subs   SubscriptionStore
	logger *slog.Logger
}

func NewNotifier(svc *Service, subs SubscriptionStore, logger *slog.Logger) *Notifier {
	return &Notifier{sender: svc, subs: subs, logger: logger}
}

// SubmissionCreated tells the family's parents a request is waiting.
func (n *Notifier) SubmissionCreated(familyID string, sub model.Submission) {
	payload := Payload{
		Title: "Review needed",
		Body:  createdBody(sub),
		URL:   "/submissions",
		Tag:   "submission-" + sub.ID,
	}
	go n.deliver(familyID, model.RoleParent, payload)
}

// SubmissionDecided tells the family's kids the outcome.
func (n *Notifier) SubmissionDecided(familyID string, sub model.Submission) {
	payload := Payload{
		Title: "Request " + string(sub.Status),
		Body:  decidedBody(sub),
		URL:   "/history",
		Tag:   "submission-" + sub.ID,
	}
	go n.deliver(familyID, model.RoleKid, payload)
}

func (n *Notifier) deliver(familyID string, role model.Role, payload Payload) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	subs, err := n.subs.ListFamilyPushSubscriptions(familyID, role)
	if err != nil {
		n.logger.Error("list push subscriptions", "family_id", familyID, "error", err)
		return
	}
	for i := range subs {
		err := n.sender.Send(ctx, &subs[i], payload)
		switch {
		case errors.Is(err, ErrExpired):
			if err := n.subs.DeletePushSubscription(subs[i].ID); err != nil {
				n.logger.Warn("drop expired subscription", "id", subs[i].ID, "error", err)
			}
		case err != nil:
			n.logger.Warn("push delivery failed", "endpoint", subs[i].Endpoint, "error", err)
		}
	}
}

func createdBody(sub model.Submission) string {
	if sub.Kind == model.SubmissionReward {
		return fmt.Sprintf("%s wants to redeem a reward (%d coins)", sub.KidName, -sub.Delta)
	}
	return fmt.Sprintf("%s finished a chore (+%d coins)", sub.KidName, sub.Delta)
}

func decidedBody(sub model.Submission) string {
	verb := "approved"
	if sub.Status == model.SubmissionRejected {
		verb = "declined"
	}
	if sub.Kind == model.SubmissionReward {
		return fmt.Sprintf("%s's reward request was %s", sub.KidName, verb)
	}
	return fmt.Sprintf("%s's chore was %s", sub.KidName, verb)
}
