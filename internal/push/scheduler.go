package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/schedule"
)

const defaultReminderInterval = time.Hour

// BoardFunc reports the currently loaded family's chore board. ok is
// false when no family session is active.
type BoardFunc func() (familyID string, chores []model.Chore, ok bool)

// Scheduler reminds the family's parents about chores due today. Each
// chore is reminded at most once per calendar day; the dedup set lives in
// memory, which is enough for a single daemon process.
type Scheduler struct {
	mu       sync.Mutex
	sender   sender
	subs     SubscriptionStore
	board    BoardFunc
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	sentDay string
	sent    map[string]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(svc *Service, subs SubscriptionStore, board BoardFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sender:   svc,
		subs:     subs,
		board:    board,
		interval: defaultReminderInterval,
		logger:   logger,
		now:      time.Now,
		sent:     make(map[string]struct{}),
	}
}

// Start begins the reminder loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	interval := s.interval
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop stops the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	familyID, chores, ok := s.board()
	if !ok {
		return
	}

	today := schedule.StartOfDay(s.now())
	day := today.Format("2006-01-02")

	s.mu.Lock()
	if s.sentDay != day {
		s.sentDay = day
		clear(s.sent)
	}
	var due []model.Chore
	for _, chore := range chores {
		if chore.Paused {
			continue
		}
		if !schedule.StartOfDay(chore.DueDate).Equal(today) {
			continue
		}
		if _, seen := s.sent[chore.ID]; seen {
			continue
		}
		s.sent[chore.ID] = struct{}{}
		due = append(due, chore)
	}
	s.mu.Unlock()

	for _, chore := range due {
		s.remind(ctx, familyID, chore)
	}
}

func (s *Scheduler) remind(ctx context.Context, familyID string, chore model.Chore) {
	subs, err := s.subs.ListFamilyPushSubscriptions(familyID, model.RoleParent)
	if err != nil {
		s.logger.Error("list push subscriptions", "family_id", familyID, "error", err)
		return
	}
	payload := Payload{
		Title: "Chore due today",
		Body:  fmt.Sprintf("%s is due today", chore.Name),
		URL:   "/chores",
		Tag:   "chore-due-" + chore.ID,
	}
	for i := range subs {
		if err := s.sender.Send(ctx, &subs[i], payload); err != nil {
			s.logger.Warn("reminder delivery failed", "endpoint", subs[i].Endpoint, "error", err)
		}
	}
}
