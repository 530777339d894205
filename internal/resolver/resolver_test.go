package resolver

import (
	"context"
	"testing"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

func TestExtractDayAndPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text    string
		wantDay string
		wantPos int
	}{
		{"remove 2. on Thursday", "Thursday", 2},
		{"cancel number 3", "", 3},
		{"delete reminder 1 from monday", "monday", 1},
		{"pause the one for Friday", "Friday", 0},
		{"Sunday looks busy", "Sunday", 0},
		{"cancel the rent one", "", 0},
		{"2: done", "", 2},
		{"", "", 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			day, pos := ExtractDayAndPosition(tc.text)
			if day != tc.wantDay || pos != tc.wantPos {
				t.Fatalf("ExtractDayAndPosition(%q) = (%q, %d), want (%q, %d)",
					tc.text, day, pos, tc.wantDay, tc.wantPos)
			}
		})
	}
}

func seed(t *testing.T, store storage.Store, owner, text string, at time.Time) *reminder.Reminder {
	t.Helper()
	r := reminder.New(owner, text, at, "UTC")
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestIdentifyByPositionInDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	// 2024-05-09 is a Thursday, 2024-05-06 a Monday.
	seed(t, store, "o1", "call bank", time.Date(2024, 5, 9, 9, 0, 0, 0, time.UTC))
	rent := seed(t, store, "o1", "pay rent", time.Date(2024, 5, 9, 14, 0, 0, 0, time.UTC))
	seed(t, store, "o1", "gym session", time.Date(2024, 5, 6, 18, 0, 0, 0, time.UTC))

	got, err := s.Identify(ctx, "o1", "remove 2. on Thursday", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got == nil || got.ID != rent.ID {
		t.Fatalf("Identify = %+v, want %q", got, rent.Text)
	}
}

func TestIdentifyPositionOutOfRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	seed(t, store, "o1", "call bank", time.Date(2024, 5, 9, 9, 0, 0, 0, time.UTC))
	seed(t, store, "o1", "pay rent", time.Date(2024, 5, 9, 14, 0, 0, 0, time.UTC))

	got, err := s.Identify(ctx, "o1", "remove 5. on Thursday", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got != nil {
		t.Fatalf("out-of-range ordinal resolved to %+v", got)
	}
}

func TestIdentifyHintShortCircuit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	seed(t, store, "o1", "call bank", time.Date(2024, 5, 9, 9, 0, 0, 0, time.UTC))
	rent := seed(t, store, "o1", "pay rent", time.Date(2024, 5, 9, 14, 0, 0, 0, time.UTC))

	got, err := s.Identify(ctx, "o1", "that one", &Hint{Day: "thursday", Position: 2})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got == nil || got.ID != rent.ID {
		t.Fatalf("Identify = %+v, want %q", got, rent.Text)
	}
}

func TestIdentifySingleActiveShortcut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	only := seed(t, store, "o1", "dentist", time.Now().Add(time.Hour))

	got, err := s.Identify(ctx, "o1", "cancel it", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got == nil || got.ID != only.ID {
		t.Fatalf("Identify = %+v", got)
	}
}

func TestIdentifyByContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	rent := seed(t, store, "o1", "pay rent", time.Now().Add(time.Hour))
	seed(t, store, "o1", "call mom", time.Now().Add(2*time.Hour))

	// Direct containment of the stored text.
	got, err := s.Identify(ctx, "o1", "please pay rent today", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got == nil || got.ID != rent.ID {
		t.Fatalf("containment match = %+v", got)
	}

	// A single shared word resolves only because no other reminder overlaps.
	got, err = s.Identify(ctx, "o1", "cancel the rent one", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got == nil || got.ID != rent.ID {
		t.Fatalf("weak unique match = %+v", got)
	}
}

func TestIdentifyAmbiguousReturnsNil(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	seed(t, store, "o1", "pay rent check", time.Now().Add(time.Hour))
	seed(t, store, "o1", "rent a movie", time.Now().Add(2*time.Hour))

	got, err := s.Identify(ctx, "o1", "cancel the rent one", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got != nil {
		t.Fatalf("ambiguous reference resolved to %+v", got)
	}
}

func TestIdentifyNoCandidates(t *testing.T) {
	t.Parallel()
	store := storage.NewMemory()
	s := New(store, logx.Nop())

	got, err := s.Identify(context.Background(), "o1", "cancel something", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if got != nil {
		t.Fatalf("empty store resolved to %+v", got)
	}
}
