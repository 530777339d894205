package query

import (
	"fmt"
	"strings"
	"time"

	"remindbot/internal/reminder"
)

// FormatList renders reminders as a numbered full-detail listing.
func FormatList(rs []*reminder.Reminder, title string) string {
	if len(rs) == 0 {
		return "You have no active reminders."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s:\n\n", title)
	for i, r := range rs {
		fmt.Fprintf(&b, "%d. %q - %s", i+1, r.Text,
			r.ScheduledTime.In(r.Location()).Format("Mon, Jan 2, 2006 at 3:04 PM MST"))
		if r.IsRecurring {
			fmt.Fprintf(&b, " (recurring %s)", r.RecurrencePattern)
		}
		if r.Status == reminder.StatusPaused {
			b.WriteString(" [PAUSED]")
		}
		fmt.Fprintf(&b, " (%s)\n", r.Category)
	}
	return b.String()
}

// FormatDay renders one day's reminders as a numbered time-ordered listing.
func FormatDay(rs []*reminder.Reminder, dateLabel string, loc *time.Location) string {
	if len(rs) == 0 {
		return "You have no reminders scheduled for " + dateLabel + "."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📆 Your schedule for %s:\n\n", dateLabel)
	for i, r := range rs {
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n", i+1,
			r.ScheduledTime.In(loc).Format("3:04 PM"), r.Text, r.Category)
	}
	return b.String()
}

// FormatGrouped renders a multi-day listing with per-day headings. Input is
// expected sorted ascending by time; headings appear in that order.
func FormatGrouped(rs []*reminder.Reminder, title string) string {
	var b strings.Builder
	b.WriteString(title + "\n\n")

	var currentDay string
	n := 0
	for _, r := range rs {
		day := r.ScheduledTime.In(r.Location()).Format("Monday, January 2")
		if day != currentDay {
			if currentDay != "" {
				b.WriteString("\n")
			}
			b.WriteString(day + "\n")
			currentDay = day
			n = 0
		}
		n++
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n", n,
			r.ScheduledTime.In(r.Location()).Format("3:04 PM"), r.Text, r.Category)
	}
	return b.String()
}
