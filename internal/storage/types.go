package storage

import (
	"context"
	"time"

	"remindbot/internal/reminder"
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file at Path
//   - "memory": in-process store (nothing survives a restart)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Filter selects reminders. Zero values mean "no constraint".
type Filter struct {
	OwnerID   string
	Kind      reminder.Kind
	Category  reminder.Category
	Status    reminder.Status
	StatusNot reminder.Status

	Completed *bool
	Paused    *bool

	// Inclusive scheduled-time bounds; zero time means unbounded.
	ScheduledFrom  time.Time
	ScheduledUntil time.Time
}

// Sort orders Find results.
type Sort int

const (
	SortNone Sort = iota
	SortByScheduledTime
	SortByCreatedDesc
)

// Store is the persistence API consumed by the services.
//
// GetByID returns (nil, nil) when the record does not exist; Delete on a
// missing id returns (false, nil). Both are defined outcomes, not errors.
type Store interface {
	Create(ctx context.Context, r *reminder.Reminder) error
	GetByID(ctx context.Context, id string) (*reminder.Reminder, error)
	Find(ctx context.Context, f Filter, sort Sort, limit int) ([]*reminder.Reminder, error)
	Update(ctx context.Context, r *reminder.Reminder) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, f Filter) (int64, error)
	Close() error
}
