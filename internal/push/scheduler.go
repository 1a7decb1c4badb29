package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chippn/chippn/internal/store"
)

// Scheduler periodically scans for due chore assignments and sends one
// reminder per assignment per day to the assignee's devices.
type Scheduler struct {
	mu        sync.RWMutex
	service   *Service
	chores    *store.ChoreStore
	tokens    *store.NotificationTokenStore
	reminders *store.ReminderStore
	logger    *slog.Logger
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewScheduler(svc *Service, cs *store.ChoreStore, ts *store.NotificationTokenStore, rs *store.ReminderStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:   svc,
		chores:    cs,
		tokens:    ts,
		reminders: rs,
		logger:    logger,
		interval:  60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	assignments, err := s.chores.ListPendingDueBy(now)
	if err != nil {
		s.logger.Error("list due assignments", "error", err)
		return
	}

	for _, a := range assignments {
		sent, err := s.reminders.WasSent(a.ID, now)
		if err != nil {
			s.logger.Error("check reminder", "assignment_id", a.ID, "error", err)
			continue
		}
		if sent {
			continue
		}

		tokens, err := s.tokens.ListByUser(a.AssignedTo)
		if err != nil {
			s.logger.Error("list tokens", "user_id", a.AssignedTo, "error", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		payload := Payload{
			Title: "Chore due",
			Body:  fmt.Sprintf("%s is due today", a.ChoreName),
			Data:  map[string]any{"assignment_id": a.ID},
		}

		for _, t := range tokens {
			if err := s.service.Send(t.Token, payload); err != nil {
				if errors.Is(err, ErrNotRegistered) {
					if derr := s.tokens.DeleteByToken(t.Token); derr != nil {
						s.logger.Error("delete stale token", "error", derr)
					}
					continue
				}
				s.logger.Warn("send reminder", "assignment_id", a.ID, "error", err)
			}
		}

		if err := s.reminders.MarkSent(a.ID, now); err != nil {
			s.logger.Error("mark reminder sent", "assignment_id", a.ID, "error", err)
		}
	}
}
