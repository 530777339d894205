package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// apology is returned whenever composing fails; the briefing must always
// produce some text for delivery.
const apology = "I was unable to put together your daily briefing. Please try again later."

// Service assembles the day-ahead/day-of summary sent by daily_briefing
// reminders.
type Service struct {
	store storage.Store
	log   logx.Logger

	now func() time.Time
}

func New(store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Compose renders the two-section today/tomorrow summary for one owner in
// their zone. It never fails: any internal error yields a fixed apology line.
func (s *Service) Compose(ctx context.Context, ownerID, tz string) string {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		s.log.Warn("briefing: bad timezone", logx.String("owner", ownerID), logx.String("tz", tz), logx.Err(err))
		return apology
	}
	today := s.now().In(loc)
	tomorrow := today.AddDate(0, 0, 1)

	todays, err := s.remindersForDay(ctx, ownerID, today, loc)
	if err != nil {
		s.log.Warn("briefing: today query failed", logx.String("owner", ownerID), logx.Err(err))
		return apology
	}
	tomorrows, err := s.remindersForDay(ctx, ownerID, tomorrow, loc)
	if err != nil {
		s.log.Warn("briefing: tomorrow query failed", logx.String("owner", ownerID), logx.Err(err))
		return apology
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌞 Good morning! Here's your daily briefing for %s\n\n", today.Format("Monday, January 2"))

	b.WriteString("TODAY'S SCHEDULE:")
	writeSection(&b, todays, loc, "No reminders for today")

	b.WriteString("\nTOMORROW:")
	writeSection(&b, tomorrows, loc, "No reminders scheduled")

	return b.String()
}

func writeSection(b *strings.Builder, rs []*reminder.Reminder, loc *time.Location, empty string) {
	if len(rs) == 0 {
		b.WriteString(" " + empty + "\n")
		return
	}
	b.WriteString("\n")
	for i, r := range rs {
		fmt.Fprintf(b, "%d. %s: %s\n", i+1, r.ScheduledTime.In(loc).Format("3:04 PM"), r.Text)
	}
}

// remindersForDay fetches the owner's standard, non-completed reminders
// within the local-day bounds of day, ascending by time.
func (s *Service) remindersForDay(ctx context.Context, ownerID string, day time.Time, loc *time.Location) ([]*reminder.Reminder, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	return s.store.Find(ctx, storage.Filter{
		OwnerID:        ownerID,
		Kind:           reminder.KindStandard,
		StatusNot:      reminder.StatusCompleted,
		ScheduledFrom:  start,
		ScheduledUntil: end,
	}, storage.SortByScheduledTime, 0)
}
