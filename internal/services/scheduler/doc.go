// Package scheduler owns the process-wide timer table: one armed one-shot
// timer per pending reminder id. All timer mutation goes through this
// service; other components must call ScheduleJob / CancelReminder /
// RescheduleReminder rather than touching timers directly.
//
// # Fire semantics
//
// A firing timer first removes itself from the table, then re-reads the
// authoritative record from the store before acting (read-then-decide). A
// pause or delete that committed before the re-read is therefore observed
// and the fire becomes a no-op. If a mutation lands after the re-read but
// before delivery, the handler still delivers based on the state it read:
// delivery is best effort, not at-most-once across concurrent external
// mutation. That window is accepted, not special-cased.
//
// # Recovery
//
// Timers are purely in-memory. Initialize() is the sole recovery mechanism:
// it wipes the table and re-arms every non-completed, non-paused reminder
// from the store. It is idempotent, and the maintenance cron reuses it as a
// periodic reconcile sweep.
package scheduler
