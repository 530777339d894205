package reminder

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category buckets reminders for filtering and display.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryFinance  Category = "finance"
	CategoryOther    Category = "other"
)

// Status is the authoritative lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Kind distinguishes ordinary reminders from the daily-briefing meta reminder.
type Kind string

const (
	KindStandard      Kind = "standard"
	KindDailyBriefing Kind = "daily_briefing"
)

const DefaultTimezone = "UTC"

// Reminder is the scheduled unit of work. One record per pending occurrence.
type Reminder struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Text    string `json:"text"`

	ScheduledTime time.Time `json:"scheduled_time"`
	Timezone      string    `json:"timezone"`

	IsRecurring       bool   `json:"is_recurring"`
	RecurrencePattern string `json:"recurrence_pattern,omitempty"`

	Category Category `json:"category"`
	Status   Status   `json:"status"`

	// Derived mirrors of Status, retained for backward-compatible querying.
	IsPaused    bool `json:"is_paused"`
	IsCompleted bool `json:"is_completed"`

	Kind Kind `json:"kind"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// New builds an active standard reminder with a fresh ID.
func New(ownerID, text string, at time.Time, tz string) *Reminder {
	if strings.TrimSpace(tz) == "" {
		tz = DefaultTimezone
	}
	now := time.Now()
	return &Reminder{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Text:          text,
		ScheduledTime: at,
		Timezone:      tz,
		Category:      CategoryOther,
		Status:        StatusActive,
		Kind:          KindStandard,
		CreatedAt:     now,
		LastUpdated:   now,
	}
}

// NewDailyBriefing builds the recurring meta reminder that triggers the
// day-ahead summary.
func NewDailyBriefing(ownerID string, at time.Time, tz string) *Reminder {
	r := New(ownerID, "Daily schedule briefing", at, tz)
	r.Kind = KindDailyBriefing
	r.IsRecurring = true
	r.RecurrencePattern = "daily"
	return r
}

// Successor clones r for the next occurrence of a recurring reminder.
// The clone gets a fresh ID and timestamps and always starts active.
func (r *Reminder) Successor(next time.Time) *Reminder {
	now := time.Now()
	cp := *r
	cp.ID = uuid.NewString()
	cp.ScheduledTime = next
	cp.Status = StatusActive
	cp.IsPaused = false
	cp.IsCompleted = false
	cp.CreatedAt = now
	cp.LastUpdated = now
	return &cp
}

// Location resolves the reminder's named zone, falling back to UTC.
func (r *Reminder) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Weekday reports the scheduled weekday in the reminder's own zone.
func (r *Reminder) Weekday() time.Weekday {
	return r.ScheduledTime.In(r.Location()).Weekday()
}

// MapCategory normalizes a free-form category label to one of the closed
// enumeration values, folding common synonyms into their nearest bucket.
func MapCategory(raw string) Category {
	c := strings.ToLower(strings.TrimSpace(raw))
	switch c {
	case "work", "personal", "health", "finance":
		return Category(c)
	case "social", "community", "charity", "fundraiser", "event":
		return CategoryPersonal
	case "medical", "wellness", "fitness", "exercise", "doctor":
		return CategoryHealth
	case "business", "meeting", "conference", "job", "professional":
		return CategoryWork
	case "banking", "payment", "money", "investment", "bill":
		return CategoryFinance
	default:
		return CategoryOther
	}
}
