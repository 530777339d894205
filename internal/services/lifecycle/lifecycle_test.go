package lifecycle

import (
	"context"
	"testing"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/services/scheduler"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

type noopDelivery struct{}

func (noopDelivery) Send(context.Context, string, string) error { return nil }

type noopComposer struct{}

func (noopComposer) Compose(context.Context, string, string) string { return "" }

func newTestService(t *testing.T) (*Service, *scheduler.Service, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	sched := scheduler.New(scheduler.Config{}, store, noopDelivery{}, noopComposer{}, logx.Nop())
	t.Cleanup(func() { sched.Stop(context.Background()) })
	return New(store, sched, "UTC", logx.Nop()), sched, store
}

func TestCreateArmsTimer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, sched, store := newTestService(t)

	r, err := svc.Create(ctx, CreateInput{
		OwnerID:  "o1",
		Text:     "pay rent",
		At:       time.Now().Add(time.Hour),
		Category: "bill",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Category != reminder.CategoryFinance {
		t.Fatalf("Category = %q, want finance", r.Category)
	}
	if got, _ := store.GetByID(ctx, r.ID); got == nil {
		t.Fatal("record not persisted")
	}
	if ids := sched.ArmedIDs(); len(ids) != 1 || ids[0] != r.ID {
		t.Fatalf("ArmedIDs = %v", ids)
	}
}

func TestCreateIgnoresPatternWhenNotRecurring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	r, err := svc.Create(ctx, CreateInput{
		OwnerID: "o1",
		Text:    "one shot",
		At:      time.Now().Add(time.Hour),
		Pattern: "daily",
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.IsRecurring || r.RecurrencePattern != "" {
		t.Fatalf("non-recurring reminder kept a pattern: %+v", r)
	}
}

func TestCreateDailyBriefing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, sched, _ := newTestService(t)

	r, err := svc.CreateDailyBriefing(ctx, "o1", time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != reminder.KindDailyBriefing || !r.IsRecurring {
		t.Fatalf("briefing = %+v", r)
	}
	if r.Timezone != "UTC" {
		t.Fatalf("Timezone = %q", r.Timezone)
	}
	if ids := sched.ArmedIDs(); len(ids) != 1 {
		t.Fatalf("ArmedIDs = %v", ids)
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, sched, store := newTestService(t)

	r, err := svc.Create(ctx, CreateInput{OwnerID: "o1", Text: "gym", At: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := svc.Pause(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("Pause = (%v, %v)", ok, err)
	}
	if ids := sched.ArmedIDs(); len(ids) != 0 {
		t.Fatalf("paused reminder still armed: %v", ids)
	}
	got, _ := store.GetByID(ctx, r.ID)
	if got.Status != reminder.StatusPaused || !got.IsPaused {
		t.Fatalf("stored state = %+v", got)
	}

	// Pausing again is a no-op.
	ok, err = svc.Pause(ctx, r.ID)
	if err != nil || ok {
		t.Fatalf("second Pause = (%v, %v), want (false, nil)", ok, err)
	}

	ok, err = svc.Resume(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("Resume = (%v, %v)", ok, err)
	}
	got, _ = store.GetByID(ctx, r.ID)
	if got.Status != reminder.StatusActive || got.IsPaused {
		t.Fatalf("stored state after resume = %+v", got)
	}
	if ids := sched.ArmedIDs(); len(ids) != 1 {
		t.Fatalf("resumed reminder not armed: %v", ids)
	}
}

func TestResumeRecomputesPastRecurring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, store := newTestService(t)

	r := reminder.New("o1", "standup", time.Now().Add(-24*time.Hour), "UTC")
	r.IsRecurring = true
	r.RecurrencePattern = "daily"
	r.Status = reminder.StatusPaused
	r.IsPaused = true
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}

	ok, err := svc.Resume(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("Resume = (%v, %v)", ok, err)
	}
	got, _ := store.GetByID(ctx, r.ID)
	if !got.ScheduledTime.After(time.Now()) {
		t.Fatalf("resume kept a past time: %v", got.ScheduledTime)
	}
}

func TestPauseMissingAndCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, store := newTestService(t)

	ok, err := svc.Pause(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("Pause(missing) = (%v, %v)", ok, err)
	}

	r := reminder.New("o1", "done", time.Now(), "UTC")
	r.Status = reminder.StatusCompleted
	r.IsCompleted = true
	if err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	ok, err = svc.Pause(ctx, r.ID)
	if err != nil || ok {
		t.Fatalf("Pause(completed) = (%v, %v)", ok, err)
	}
	ok, err = svc.Resume(ctx, r.ID)
	if err != nil || ok {
		t.Fatalf("Resume(completed) = (%v, %v)", ok, err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, sched, _ := newTestService(t)

	r, err := svc.Create(ctx, CreateInput{OwnerID: "o1", Text: "x", At: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := svc.Delete(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v)", ok, err)
	}
	if ids := sched.ArmedIDs(); len(ids) != 0 {
		t.Fatalf("deleted reminder still armed: %v", ids)
	}
	ok, err = svc.Delete(ctx, r.ID)
	if err != nil || ok {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestDeleteAllForOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, sched, store := newTestService(t)

	for _, txt := range []string{"a", "b", "c"} {
		if _, err := svc.Create(ctx, CreateInput{OwnerID: "o1", Text: txt, At: time.Now().Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}
	other, err := svc.Create(ctx, CreateInput{OwnerID: "o2", Text: "keep", At: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}

	n, err := svc.DeleteAllForOwner(ctx, "o1")
	if err != nil || n != 3 {
		t.Fatalf("DeleteAllForOwner = (%d, %v)", n, err)
	}
	if ids := sched.ArmedIDs(); len(ids) != 1 || ids[0] != other.ID {
		t.Fatalf("ArmedIDs = %v", ids)
	}
	if got, _ := store.GetByID(ctx, other.ID); got == nil {
		t.Fatal("other owner's reminder was deleted")
	}
}

func TestUpdateReschedules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, store := newTestService(t)

	r, err := svc.Create(ctx, CreateInput{
		OwnerID:   "o1",
		Text:      "old text",
		At:        time.Now().Add(time.Hour),
		Recurring: true,
		Pattern:   "weekly",
	})
	if err != nil {
		t.Fatal(err)
	}

	r.Text = "new text"
	r.IsRecurring = false
	if err := svc.Update(ctx, r); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := store.GetByID(ctx, r.ID)
	if got.Text != "new text" {
		t.Fatalf("Text = %q", got.Text)
	}
	if got.RecurrencePattern != "" {
		t.Fatalf("pattern survived recurrence removal: %q", got.RecurrencePattern)
	}
}
