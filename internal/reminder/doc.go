// Package reminder holds the core domain model: the Reminder record, its
// lifecycle states, and the recurrence calculator.
//
// # Lifecycle
//
// A reminder is "active" until it either fires (-> "completed") or is paused
// by its owner ("paused" <-> "active"). "completed" is terminal; hard delete
// is the only other way out of the store. The Status field is authoritative;
// IsPaused/IsCompleted are derived mirrors kept for query compatibility and
// must only be changed through Transition / markers on this type.
//
// # Recurrence
//
// Recurring reminders never mutate their own ScheduledTime on fire. Instead
// each occurrence spawns a successor record (fresh ID, next time), so history
// is a chain of completed records rather than an in-place rewrite. The one
// exception is past-due rescheduling at arm time, which corrects the stored
// time forward before the timer is created.
package reminder
