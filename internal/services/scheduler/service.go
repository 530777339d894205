package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

type Service struct {
	cfg     Config
	store   storage.Store
	deliver Delivery
	compose Composer
	log     logx.Logger

	handlers map[reminder.Kind]fireFunc

	// tmu guards the timer table. One armed timer per reminder id, no
	// exceptions: arming always stops a previous timer for the same id.
	tmu    sync.Mutex
	timers map[string]*time.Timer

	maint *maintenance
}

func New(cfg Config, store storage.Store, deliver Delivery, compose Composer, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg:     cfg.withDefaults(),
		store:   store,
		deliver: deliver,
		compose: compose,
		log:     log,
		timers:  map[string]*time.Timer{},
	}
	s.handlers = map[reminder.Kind]fireFunc{
		reminder.KindStandard:      s.fireStandard,
		reminder.KindDailyBriefing: s.fireBriefing,
	}
	s.maint = newMaintenance(s)
	return s
}

// Start arms everything pending and begins maintenance crons. Safe to call
// once at process start.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.maint.start()
}

func (s *Service) Stop(ctx context.Context) {
	s.maint.stop()

	s.tmu.Lock()
	for _, t := range s.timers {
		_ = t.Stop()
	}
	n := len(s.timers)
	s.timers = map[string]*time.Timer{}
	s.tmu.Unlock()

	s.log.Info("scheduler stopped", logx.Int("timers_cancelled", n))
}

// Initialize wipes the timer table and re-arms every non-completed,
// non-paused reminder from the store. Idempotent; a reminder that fails to
// schedule is logged and skipped, never fatal.
func (s *Service) Initialize(ctx context.Context) error {
	s.tmu.Lock()
	for _, t := range s.timers {
		_ = t.Stop()
	}
	s.timers = map[string]*time.Timer{}
	s.tmu.Unlock()

	notPaused := false
	pending, err := s.store.Find(ctx, storage.Filter{
		StatusNot: reminder.StatusCompleted,
		Paused:    &notPaused,
	}, storage.SortByScheduledTime, 0)
	if err != nil {
		return fmt.Errorf("scheduler initialize: %w", err)
	}

	scheduled := 0
	for _, r := range pending {
		if err := s.ScheduleJob(ctx, r); err != nil {
			s.log.Warn("initialize: scheduling failed", logx.String("id", r.ID), logx.Err(err))
			continue
		}
		scheduled++
	}
	s.log.Info("scheduler initialized", logx.Int("pending", len(pending)), logx.Int("scheduled", scheduled))
	return nil
}

// ScheduleJob arms a timer for the reminder.
//
// Paused reminders are skipped. A past-due recurring reminder is corrected
// forward from now (and the corrected time persisted); a past-due
// non-recurring one is marked completed (missed) and never armed.
func (s *Service) ScheduleJob(ctx context.Context, r *reminder.Reminder) error {
	if r == nil {
		return nil
	}
	if r.IsPaused || r.Status == reminder.StatusPaused {
		s.log.Debug("skip scheduling paused reminder", logx.String("id", r.ID))
		return nil
	}

	now := time.Now()
	if r.ScheduledTime.Before(now) {
		if r.IsRecurring {
			// Compute from now, not from the stale time, so the next
			// occurrence is always in the future.
			next, ok := reminder.NextOccurrence(now, r.RecurrencePattern, r.Timezone)
			if !ok {
				s.log.Warn("no next occurrence for past-due reminder; leaving unscheduled",
					logx.String("id", r.ID), logx.String("pattern", r.RecurrencePattern))
				return nil
			}
			r.ScheduledTime = next
			r.LastUpdated = now
			if err := s.store.Update(ctx, r); err != nil {
				return fmt.Errorf("persist corrected time for %s: %w", r.ID, err)
			}
			s.log.Info("past-due recurring reminder moved forward",
				logx.String("id", r.ID), logx.Time("next", next))
		} else {
			if err := r.Transition(reminder.StatusCompleted); err != nil {
				return err
			}
			if err := s.store.Update(ctx, r); err != nil {
				return fmt.Errorf("mark missed reminder %s: %w", r.ID, err)
			}
			s.log.Info("past-due reminder marked missed", logx.String("id", r.ID))
			return nil
		}
	}

	s.arm(r.ID, r.ScheduledTime)
	s.log.Debug("reminder armed",
		logx.String("id", r.ID), logx.String("kind", string(r.Kind)), logx.Time("at", r.ScheduledTime))
	return nil
}

func (s *Service) arm(id string, at time.Time) {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if prev := s.timers[id]; prev != nil {
		_ = prev.Stop()
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	s.timers[id] = time.AfterFunc(d, func() { s.fire(id) })
}

// CancelReminder removes the armed timer for id, reporting whether one was
// actually cancelled. Missing ids are a no-op.
func (s *Service) CancelReminder(id string) bool {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	_ = t.Stop()
	delete(s.timers, id)
	return true
}

// RescheduleReminder re-fetches the record, drops any armed timer, and
// re-arms only if the reminder is still neither completed nor paused.
func (s *Service) RescheduleReminder(ctx context.Context, id string) (bool, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	s.CancelReminder(id)

	if r == nil {
		s.log.Debug("reschedule: reminder not found", logx.String("id", id))
		return false, nil
	}
	if r.IsCompleted || r.Status == reminder.StatusCompleted || r.IsPaused {
		return false, nil
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

// CancelAllForOwner drops every armed timer belonging to the owner's
// reminders; used ahead of destructive bulk deletion.
func (s *Service) CancelAllForOwner(ctx context.Context, ownerID string) (int, error) {
	rs, err := s.store.Find(ctx, storage.Filter{OwnerID: ownerID}, storage.SortNone, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rs {
		if s.CancelReminder(r.ID) {
			n++
		}
	}
	return n, nil
}

// ArmedIDs returns a sorted snapshot of reminder ids with live timers.
func (s *Service) ArmedIDs() []string {
	s.tmu.Lock()
	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	s.tmu.Unlock()
	sort.Strings(ids)
	return ids
}

// fire runs when a timer elapses: drop the table entry, re-read the record,
// and dispatch by kind. Errors are logged, never propagated; one bad
// reminder must not halt scheduling for the rest.
func (s *Service) fire(id string) {
	s.tmu.Lock()
	delete(s.timers, id)
	s.tmu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FireTimeout)
	defer cancel()

	cur, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("fire: re-read failed", logx.String("id", id), logx.Err(err))
		return
	}
	if cur == nil || cur.IsCompleted || cur.IsPaused {
		// Another actor already handled it (paused, completed, or deleted).
		s.log.Debug("fire: reminder no longer active", logx.String("id", id))
		return
	}

	h, ok := s.handlers[cur.Kind]
	if !ok {
		h = s.fireStandard
	}
	h(ctx, cur)
}

func (s *Service) fireStandard(ctx context.Context, cur *reminder.Reminder) {
	if err := s.deliver.Send(ctx, cur.OwnerID, "⏰ Reminder: "+cur.Text); err != nil {
		s.log.Error("fire: delivery failed", logx.String("id", cur.ID), logx.Err(err))
	}

	if cur.IsRecurring {
		s.spawnSuccessor(ctx, cur)
	}
	s.complete(ctx, cur)
}

func (s *Service) fireBriefing(ctx context.Context, cur *reminder.Reminder) {
	text := apologyFallback
	if s.compose != nil {
		text = s.compose.Compose(ctx, cur.OwnerID, cur.Timezone)
	}
	if err := s.deliver.Send(ctx, cur.OwnerID, text); err != nil {
		s.log.Error("fire: briefing delivery failed", logx.String("id", cur.ID), logx.Err(err))
	}

	if cur.IsRecurring {
		s.spawnSuccessor(ctx, cur)
	}
	s.complete(ctx, cur)
}

const apologyFallback = "I was unable to put together your daily briefing. Please try again later."

// spawnSuccessor creates and arms the next occurrence. The next time is
// computed from the firing occurrence's scheduled time, not from now, so the
// chain keeps its cadence even when firing runs late.
func (s *Service) spawnSuccessor(ctx context.Context, cur *reminder.Reminder) {
	next, ok := reminder.NextOccurrence(cur.ScheduledTime, cur.RecurrencePattern, cur.Timezone)
	if !ok {
		s.log.Warn("fire: no next occurrence, recurrence chain ends",
			logx.String("id", cur.ID), logx.String("pattern", cur.RecurrencePattern))
		return
	}
	succ := cur.Successor(next)
	if err := s.store.Create(ctx, succ); err != nil {
		s.log.Error("fire: creating successor failed", logx.String("id", cur.ID), logx.Err(err))
		return
	}
	if err := s.ScheduleJob(ctx, succ); err != nil {
		s.log.Warn("fire: scheduling successor failed", logx.String("id", succ.ID), logx.Err(err))
	}
}

func (s *Service) complete(ctx context.Context, cur *reminder.Reminder) {
	if err := cur.Transition(reminder.StatusCompleted); err != nil {
		s.log.Warn("fire: complete transition refused", logx.String("id", cur.ID), logx.Err(err))
		return
	}
	if err := s.store.Update(ctx, cur); err != nil {
		s.log.Error("fire: persisting completion failed", logx.String("id", cur.ID), logx.Err(err))
		return
	}
	s.log.Info("reminder fired", logx.String("id", cur.ID), logx.String("owner", cur.OwnerID))
}
