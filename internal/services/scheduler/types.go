package scheduler

import (
	"context"
	"time"

	"remindbot/internal/reminder"
)

type Config struct {
	// CleanupSpec is a cron expression for pruning old completed reminders.
	CleanupSpec string // default "30 3 * * *"
	// RetentionDays keeps completed reminders around for this many days.
	RetentionDays int // default 7
	// ReconcileEvery re-runs Initialize to pick up records the timer table
	// may have lost (e.g. a crash between store write and re-arm).
	// 0 disables the sweep.
	ReconcileEvery time.Duration
	// FireTimeout bounds one fire handler run (store reads + delivery).
	FireTimeout time.Duration // default 2m
}

func (c Config) withDefaults() Config {
	if c.CleanupSpec == "" {
		c.CleanupSpec = "30 3 * * *"
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 7
	}
	if c.FireTimeout <= 0 {
		c.FireTimeout = 2 * time.Minute
	}
	return c
}

// Delivery is the outbound side; satisfied by *notify.Service.
type Delivery interface {
	Send(ctx context.Context, ownerID, text string) error
}

// Composer builds the daily-briefing text; satisfied by *briefing.Service.
type Composer interface {
	Compose(ctx context.Context, ownerID, tz string) string
}

// fireFunc handles one reminder kind at fire time. The registry keyed by
// Kind keeps per-kind behavior out of the fire loop itself.
type fireFunc func(ctx context.Context, r *reminder.Reminder)
