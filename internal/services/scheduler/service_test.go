package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

type fakeDelivery struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeDelivery) Send(_ context.Context, ownerID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ownerID+"|"+text)
	return nil
}

func (f *fakeDelivery) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeComposer struct{ text string }

func (f *fakeComposer) Compose(context.Context, string, string) string { return f.text }

func newTestService(t *testing.T) (*Service, storage.Store, *fakeDelivery) {
	t.Helper()
	store := storage.NewMemory()
	d := &fakeDelivery{}
	s := New(Config{}, store, d, &fakeComposer{text: "briefing body"}, logx.Nop())
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s, store, d
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestScheduleJobArmsFutureReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestService(t)

	r := reminder.New("o1", "call mom", time.Now().Add(time.Hour), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatalf("ScheduleJob: %v", err)
	}

	ids := s.ArmedIDs()
	if len(ids) != 1 || ids[0] != r.ID {
		t.Fatalf("ArmedIDs = %v", ids)
	}

	// Re-arming the same id must not grow the table.
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}
	if got := s.ArmedIDs(); len(got) != 1 {
		t.Fatalf("double arm: %v", got)
	}
}

func TestScheduleJobSkipsPaused(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newTestService(t)

	r := reminder.New("o1", "x", time.Now().Add(time.Hour), "UTC")
	r.Status = reminder.StatusPaused
	r.IsPaused = true
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatalf("ScheduleJob: %v", err)
	}
	if ids := s.ArmedIDs(); len(ids) != 0 {
		t.Fatalf("paused reminder was armed: %v", ids)
	}
}

func TestScheduleJobPastDueNonRecurring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, d := newTestService(t)

	r := reminder.New("o1", "expired", time.Now().Add(-time.Hour), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatalf("ScheduleJob: %v", err)
	}
	if ids := s.ArmedIDs(); len(ids) != 0 {
		t.Fatalf("missed reminder was armed: %v", ids)
	}
	got, _ := store.GetByID(ctx, r.ID)
	if got.Status != reminder.StatusCompleted {
		t.Fatalf("missed reminder status = %q, want completed", got.Status)
	}
	if len(d.messages()) != 0 {
		t.Fatal("missed reminder must not be delivered")
	}
}

func TestScheduleJobPastDueRecurringMovesForward(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestService(t)

	r := reminder.New("o1", "standup", time.Now().Add(-2*time.Hour), "UTC")
	r.IsRecurring = true
	r.RecurrencePattern = "daily"
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatalf("ScheduleJob: %v", err)
	}
	if ids := s.ArmedIDs(); len(ids) != 1 {
		t.Fatalf("ArmedIDs = %v", ids)
	}
	got, _ := store.GetByID(ctx, r.ID)
	if !got.ScheduledTime.After(time.Now()) {
		t.Fatalf("corrected time not in the future: %v", got.ScheduledTime)
	}
	if got.Status != reminder.StatusActive {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestCancelReminderIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestService(t)

	r := reminder.New("o1", "x", time.Now().Add(time.Hour), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}
	if !s.CancelReminder(r.ID) {
		t.Fatal("first cancel must report true")
	}
	if s.CancelReminder(r.ID) {
		t.Fatal("second cancel must report false")
	}
	if s.CancelReminder("never-existed") {
		t.Fatal("cancel of unknown id must report false")
	}
}

func TestFireDeliversAndCompletes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, d := newTestService(t)

	r := reminder.New("o1", "take out trash", time.Now().Add(30*time.Millisecond), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		got, _ := store.GetByID(ctx, r.ID)
		return got != nil && got.Status == reminder.StatusCompleted
	})

	msgs := d.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "take out trash") {
		t.Fatalf("messages = %v", msgs)
	}
	if !strings.HasPrefix(msgs[0], "o1|⏰ Reminder: ") {
		t.Fatalf("unexpected message shape: %q", msgs[0])
	}
	if ids := s.ArmedIDs(); len(ids) != 0 {
		t.Fatalf("timer table not drained: %v", ids)
	}
}

func TestFireSkipsDeletedReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, d := newTestService(t)

	r := reminder.New("o1", "stale", time.Now().Add(40*time.Millisecond), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}
	// Delete from the store but leave the timer armed; the fire handler must
	// notice the record is gone and do nothing.
	if ok, _ := store.Delete(ctx, r.ID); !ok {
		t.Fatal("delete failed")
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(s.ArmedIDs()) == 0
	})
	time.Sleep(50 * time.Millisecond)
	if msgs := d.messages(); len(msgs) != 0 {
		t.Fatalf("deleted reminder was delivered: %v", msgs)
	}
}

func TestFireSpawnsSuccessor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, d := newTestService(t)

	r := reminder.New("o1", "water plants", time.Now().Add(30*time.Millisecond), "UTC")
	r.IsRecurring = true
	r.RecurrencePattern = "daily"
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		got, _ := store.GetByID(ctx, r.ID)
		return got != nil && got.Status == reminder.StatusCompleted
	})

	all, err := store.Find(ctx, storage.Filter{OwnerID: "o1"}, storage.SortByScheduledTime, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected fired original plus successor, got %d records", len(all))
	}
	var succ *reminder.Reminder
	for _, rec := range all {
		if rec.ID != r.ID {
			succ = rec
		}
	}
	if succ == nil || succ.Status != reminder.StatusActive {
		t.Fatalf("successor = %+v", succ)
	}
	if !succ.ScheduledTime.After(time.Now()) {
		t.Fatalf("successor not in the future: %v", succ.ScheduledTime)
	}
	waitFor(t, time.Second, func() bool {
		ids := s.ArmedIDs()
		return len(ids) == 1 && ids[0] == succ.ID
	})
	if len(d.messages()) != 1 {
		t.Fatalf("messages = %v", d.messages())
	}
}

func TestFireBriefingUsesComposer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, d := newTestService(t)

	r := reminder.NewDailyBriefing("o1", time.Now().Add(30*time.Millisecond), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(d.messages()) > 0
	})
	if msgs := d.messages(); msgs[0] != "o1|briefing body" {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestInitializeArmsOnlyPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestService(t)

	active := reminder.New("o1", "active", time.Now().Add(time.Hour), "UTC")
	paused := reminder.New("o1", "paused", time.Now().Add(time.Hour), "UTC")
	paused.Status = reminder.StatusPaused
	paused.IsPaused = true
	done := reminder.New("o1", "done", time.Now().Add(time.Hour), "UTC")
	done.Status = reminder.StatusCompleted
	done.IsCompleted = true

	for _, r := range []*reminder.Reminder{active, paused, done} {
		if err := store.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	ids := s.ArmedIDs()
	if len(ids) != 1 || ids[0] != active.ID {
		t.Fatalf("ArmedIDs = %v, want only %s", ids, active.ID)
	}

	// Initialize again; still exactly one timer.
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if ids := s.ArmedIDs(); len(ids) != 1 {
		t.Fatalf("re-initialize grew the table: %v", ids)
	}
}

func TestRescheduleReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, store, _ := newTestService(t)

	r := reminder.New("o1", "moved", time.Now().Add(time.Hour), "UTC")
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleJob(ctx, r); err != nil {
		t.Fatal(err)
	}

	ok, err := s.RescheduleReminder(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("RescheduleReminder = (%v, %v)", ok, err)
	}

	// Complete it in the store; rescheduling must now drop the timer for good.
	got, _ := store.GetByID(ctx, r.ID)
	if err := got.Transition(reminder.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(ctx, got); err != nil {
		t.Fatal(err)
	}
	ok, err = s.RescheduleReminder(ctx, r.ID)
	if err != nil || ok {
		t.Fatalf("RescheduleReminder on completed = (%v, %v), want (false, nil)", ok, err)
	}
	if ids := s.ArmedIDs(); len(ids) != 0 {
		t.Fatalf("completed reminder still armed: %v", ids)
	}

	ok, err = s.RescheduleReminder(ctx, "missing-id")
	if err != nil || ok {
		t.Fatalf("RescheduleReminder on missing = (%v, %v)", ok, err)
	}
}
