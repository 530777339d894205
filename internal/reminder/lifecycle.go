package reminder

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitions lists the allowed status moves. "completed" is terminal;
// deletion is not a status, it removes the record.
var transitions = map[Status][]Status{
	StatusActive: {StatusPaused, StatusCompleted},
	StatusPaused: {StatusActive},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the reminder to the target status, keeping the
// IsPaused/IsCompleted mirrors consistent. Moving to the current status
// is a no-op.
func (r *Reminder) Transition(to Status) error {
	if r.Status == to {
		return nil
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	r.IsPaused = to == StatusPaused
	r.IsCompleted = to == StatusCompleted
	r.LastUpdated = time.Now()
	return nil
}
