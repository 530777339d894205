// Package lifecycle coordinates reminder state changes across the store and
// the scheduler's timer table: creation, pause/resume, and (bulk) deletion.
// The scheduler owns firing and completion; everything user-triggered goes
// through here.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// Scheduler is the slice of the timer-table API this service needs.
type Scheduler interface {
	ScheduleJob(ctx context.Context, r *reminder.Reminder) error
	CancelReminder(id string) bool
	RescheduleReminder(ctx context.Context, id string) (bool, error)
	CancelAllForOwner(ctx context.Context, ownerID string) (int, error)
}

type Service struct {
	store storage.Store
	sched Scheduler
	log   logx.Logger

	defaultTZ string
}

func New(store storage.Store, sched Scheduler, defaultTZ string, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(defaultTZ) == "" {
		defaultTZ = reminder.DefaultTimezone
	}
	return &Service{store: store, sched: sched, log: log, defaultTZ: defaultTZ}
}

type CreateInput struct {
	OwnerID  string
	Text     string
	At       time.Time
	Timezone string

	Recurring bool
	Pattern   string
	Category  string
}

// Create persists a new reminder and arms it. A scheduling failure is logged
// but does not fail creation: the record is durable and Initialize will pick
// it up.
func (s *Service) Create(ctx context.Context, in CreateInput) (*reminder.Reminder, error) {
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = s.defaultTZ
	}
	r := reminder.New(in.OwnerID, in.Text, in.At, tz)
	r.Category = reminder.MapCategory(in.Category)
	if in.Recurring {
		r.IsRecurring = true
		r.RecurrencePattern = in.Pattern
	}

	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("reminder created",
		logx.String("id", r.ID), logx.String("owner", r.OwnerID), logx.Time("at", r.ScheduledTime))

	if err := s.sched.ScheduleJob(ctx, r); err != nil {
		s.log.Warn("created reminder could not be armed", logx.String("id", r.ID), logx.Err(err))
	}
	return r, nil
}

// CreateDailyBriefing persists and arms the recurring briefing meta reminder.
func (s *Service) CreateDailyBriefing(ctx context.Context, ownerID string, at time.Time, tz string) (*reminder.Reminder, error) {
	if strings.TrimSpace(tz) == "" {
		tz = s.defaultTZ
	}
	r := reminder.NewDailyBriefing(ownerID, at, tz)
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("daily briefing reminder created",
		logx.String("id", r.ID), logx.String("owner", ownerID), logx.Time("at", at))

	if err := s.sched.ScheduleJob(ctx, r); err != nil {
		s.log.Warn("briefing reminder could not be armed", logx.String("id", r.ID), logx.Err(err))
	}
	return r, nil
}

// Pause cancels the timer and marks the reminder paused. Missing ids,
// already-paused, and completed reminders are safe no-ops (false, nil).
func (s *Service) Pause(ctx context.Context, id string) (bool, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if r == nil || !reminder.CanTransition(r.Status, reminder.StatusPaused) {
		return false, nil
	}

	// Timer first: a paused record must never have an armed timer.
	s.sched.CancelReminder(id)

	if err := r.Transition(reminder.StatusPaused); err != nil {
		return false, err
	}
	if err := s.store.Update(ctx, r); err != nil {
		return false, err
	}
	s.log.Info("reminder paused", logx.String("id", id))
	return true, nil
}

// Resume re-activates a paused reminder and re-arms it. If a recurring
// reminder's stored time already passed while paused, the next occurrence is
// recomputed forward from now before arming.
func (s *Service) Resume(ctx context.Context, id string) (bool, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if r == nil || r.Status != reminder.StatusPaused {
		return false, nil
	}

	if err := r.Transition(reminder.StatusActive); err != nil {
		return false, err
	}

	now := time.Now()
	if r.IsRecurring && r.ScheduledTime.Before(now) {
		if next, ok := reminder.NextOccurrence(now, r.RecurrencePattern, r.Timezone); ok {
			r.ScheduledTime = next
		} else {
			s.log.Warn("resume: next occurrence unresolved, keeping stored time",
				logx.String("id", id), logx.String("pattern", r.RecurrencePattern))
		}
	}

	if err := s.store.Update(ctx, r); err != nil {
		return false, err
	}
	if err := s.sched.ScheduleJob(ctx, r); err != nil {
		s.log.Warn("resume: re-arming failed", logx.String("id", id), logx.Err(err))
	}
	s.log.Info("reminder resumed", logx.String("id", id), logx.Time("at", r.ScheduledTime))
	return true, nil
}

// Delete cancels any timer and hard-deletes the record. Deleting a missing
// id reports false without error.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	s.sched.CancelReminder(id)
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info("reminder deleted", logx.String("id", id))
	}
	return deleted, nil
}

// DeleteAllForOwner bulk-cancels the owner's timers, then removes their
// records.
func (s *Service) DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	if _, err := s.sched.CancelAllForOwner(ctx, ownerID); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteMany(ctx, storage.Filter{OwnerID: ownerID})
	if err != nil {
		return 0, err
	}
	s.log.Info("owner reminders deleted", logx.String("owner", ownerID), logx.Int64("count", n))
	return n, nil
}

// Update persists edited fields and recomputes scheduling for the record.
func (s *Service) Update(ctx context.Context, r *reminder.Reminder) error {
	if r == nil {
		return nil
	}
	if !r.IsRecurring {
		r.RecurrencePattern = ""
	}
	r.LastUpdated = time.Now()
	if err := s.store.Update(ctx, r); err != nil {
		return err
	}
	if _, err := s.sched.RescheduleReminder(ctx, r.ID); err != nil {
		s.log.Warn("update: reschedule failed", logx.String("id", r.ID), logx.Err(err))
	}
	return nil
}
