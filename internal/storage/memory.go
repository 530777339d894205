package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"remindbot/internal/reminder"
)

// memoryStore keeps everything in a map. It exists for tests and for
// running the bot without a durable database; semantics mirror the sqlite
// driver exactly.
type memoryStore struct {
	mu   sync.RWMutex
	recs map[string]reminder.Reminder
}

// NewMemory returns an empty in-process store.
func NewMemory() Store {
	return &memoryStore{recs: map[string]reminder.Reminder{}}
}

func (m *memoryStore) Create(_ context.Context, r *reminder.Reminder) error {
	if r == nil || r.ID == "" {
		return errors.New("reminder id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.recs[r.ID]; exists {
		return errors.New("duplicate reminder id: " + r.ID)
	}
	m.recs[r.ID] = *r
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*reminder.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recs[id]
	if !ok {
		return nil, nil
	}
	cp := r
	return &cp, nil
}

func (m *memoryStore) Find(_ context.Context, f Filter, srt Sort, limit int) ([]*reminder.Reminder, error) {
	m.mu.RLock()
	var out []*reminder.Reminder
	for _, r := range m.recs {
		if matches(&r, f) {
			cp := r
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	switch srt {
	case SortByScheduledTime:
		sort.Slice(out, func(i, j int) bool {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		})
	case SortByCreatedDesc:
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) Update(_ context.Context, r *reminder.Reminder) error {
	if r == nil || r.ID == "" {
		return errors.New("reminder id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Last write wins, same as the sqlite driver. Updating a vanished record
	// silently recreates nothing.
	if _, ok := m.recs[r.ID]; !ok {
		return nil
	}
	m.recs[r.ID] = *r
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return false, nil
	}
	delete(m.recs, id)
	return true, nil
}

func (m *memoryStore) DeleteMany(_ context.Context, f Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.recs {
		if matches(&r, f) {
			delete(m.recs, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Close() error { return nil }

func matches(r *reminder.Reminder, f Filter) bool {
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.StatusNot != "" && r.Status == f.StatusNot {
		return false
	}
	if f.Completed != nil && r.IsCompleted != *f.Completed {
		return false
	}
	if f.Paused != nil && r.IsPaused != *f.Paused {
		return false
	}
	if !f.ScheduledFrom.IsZero() && r.ScheduledTime.Before(f.ScheduledFrom) {
		return false
	}
	if !f.ScheduledUntil.IsZero() && r.ScheduledTime.After(f.ScheduledUntil) {
		return false
	}
	return true
}
