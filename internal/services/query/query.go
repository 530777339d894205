// Package query serves owner-scoped reminder listings and their chat-ready
// renderings: today/tomorrow/week/month views, category filters, and the
// upcoming window. Read-only; all writes go through lifecycle.
package query

import (
	"context"
	"strings"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

type Service struct {
	store storage.Store
	log   logx.Logger

	defaultTZ string
	now       func() time.Time
}

func New(store storage.Store, defaultTZ string, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(defaultTZ) == "" {
		defaultTZ = reminder.DefaultTimezone
	}
	return &Service{store: store, log: log, defaultTZ: defaultTZ, now: time.Now}
}

func (s *Service) location(tz string) *time.Location {
	if strings.TrimSpace(tz) == "" {
		tz = s.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ActiveReminders lists the owner's pending standard reminders ascending by
// time. Paused ones are included; completed ones are not.
func (s *Service) ActiveReminders(ctx context.Context, ownerID string) ([]*reminder.Reminder, error) {
	return s.store.Find(ctx, storage.Filter{
		OwnerID:   ownerID,
		Kind:      reminder.KindStandard,
		StatusNot: reminder.StatusCompleted,
	}, storage.SortByScheduledTime, 0)
}

// RemindersForDay lists pending standard reminders inside the local-day
// bounds of day in the given zone.
func (s *Service) RemindersForDay(ctx context.Context, ownerID string, day time.Time, tz string) ([]*reminder.Reminder, error) {
	loc := s.location(tz)
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return s.remindersBetween(ctx, ownerID, start, end, 0)
}

// Today returns today's reminders plus a rendered message.
func (s *Service) Today(ctx context.Context, ownerID, tz string) ([]*reminder.Reminder, string, error) {
	loc := s.location(tz)
	day := s.now().In(loc)
	rs, err := s.RemindersForDay(ctx, ownerID, day, tz)
	if err != nil {
		return nil, "", err
	}
	return rs, FormatDay(rs, day.Format("Monday, January 2"), loc), nil
}

// Tomorrow returns tomorrow's reminders plus a rendered message.
func (s *Service) Tomorrow(ctx context.Context, ownerID, tz string) ([]*reminder.Reminder, string, error) {
	loc := s.location(tz)
	day := s.now().In(loc).AddDate(0, 0, 1)
	rs, err := s.RemindersForDay(ctx, ownerID, day, tz)
	if err != nil {
		return nil, "", err
	}
	return rs, FormatDay(rs, day.Format("Monday, January 2"), loc), nil
}

// Week returns this week's reminders (Sunday through Saturday, local zone)
// grouped by day in the rendered message.
func (s *Service) Week(ctx context.Context, ownerID, tz string) ([]*reminder.Reminder, string, error) {
	loc := s.location(tz)
	now := s.now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -int(now.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)

	rs, err := s.remindersBetween(ctx, ownerID, start, end, 0)
	if err != nil {
		return nil, "", err
	}
	if len(rs) == 0 {
		return rs, "You have no reminders scheduled for this week.", nil
	}
	return rs, FormatGrouped(rs, "📅 Your schedule for this week:"), nil
}

// Month returns the current calendar month's reminders grouped by day.
func (s *Service) Month(ctx context.Context, ownerID, tz string) ([]*reminder.Reminder, string, error) {
	loc := s.location(tz)
	now := s.now().In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)

	rs, err := s.remindersBetween(ctx, ownerID, start, end, 0)
	if err != nil {
		return nil, "", err
	}
	if len(rs) == 0 {
		return rs, "You have no reminders scheduled for this month.", nil
	}
	return rs, FormatGrouped(rs, "📅 Your schedule for "+now.Format("January 2006")+":"), nil
}

// ByCategory lists pending standard reminders in one category.
func (s *Service) ByCategory(ctx context.Context, ownerID string, cat reminder.Category) ([]*reminder.Reminder, string, error) {
	rs, err := s.store.Find(ctx, storage.Filter{
		OwnerID:   ownerID,
		Kind:      reminder.KindStandard,
		Category:  cat,
		StatusNot: reminder.StatusCompleted,
	}, storage.SortByScheduledTime, 0)
	if err != nil {
		return nil, "", err
	}
	if len(rs) == 0 {
		return rs, `You have no active reminders in the "` + string(cat) + `" category.`, nil
	}
	return rs, FormatList(rs, "Your "+string(cat)+" reminders"), nil
}

// Upcoming lists the next pending reminders inside a 30-day window.
func (s *Service) Upcoming(ctx context.Context, ownerID string, limit int) ([]*reminder.Reminder, string, error) {
	if limit <= 0 {
		limit = 10
	}
	now := s.now()
	rs, err := s.remindersBetween(ctx, ownerID, now, now.AddDate(0, 0, 30), limit)
	if err != nil {
		return nil, "", err
	}
	if len(rs) == 0 {
		return rs, "You have no upcoming reminders scheduled.", nil
	}
	return rs, FormatGrouped(rs, "📅 Your upcoming schedule:"), nil
}

// LastCreated returns the owner's most recently created pending reminder.
func (s *Service) LastCreated(ctx context.Context, ownerID string) (*reminder.Reminder, error) {
	rs, err := s.store.Find(ctx, storage.Filter{
		OwnerID:   ownerID,
		Kind:      reminder.KindStandard,
		StatusNot: reminder.StatusCompleted,
	}, storage.SortByCreatedDesc, 1)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, nil
	}
	return rs[0], nil
}

func (s *Service) remindersBetween(ctx context.Context, ownerID string, from, until time.Time, limit int) ([]*reminder.Reminder, error) {
	return s.store.Find(ctx, storage.Filter{
		OwnerID:        ownerID,
		Kind:           reminder.KindStandard,
		StatusNot:      reminder.StatusCompleted,
		ScheduledFrom:  from,
		ScheduledUntil: until,
	}, storage.SortByScheduledTime, limit)
}
