package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// maintenance runs the scheduler's background crons: pruning old completed
// reminders and the periodic reconcile sweep.
type maintenance struct {
	s *Service
	c *cron.Cron
}

func newMaintenance(s *Service) *maintenance {
	return &maintenance{s: s}
}

func (m *maintenance) start() error {
	c := cron.New()

	if _, err := c.AddFunc(m.s.cfg.CleanupSpec, m.runCleanup); err != nil {
		return fmt.Errorf("cleanup cron spec %q: %w", m.s.cfg.CleanupSpec, err)
	}

	if every := m.s.cfg.ReconcileEvery; every > 0 {
		spec := fmt.Sprintf("@every %s", every)
		if _, err := c.AddFunc(spec, m.runReconcile); err != nil {
			return fmt.Errorf("reconcile cron spec %q: %w", spec, err)
		}
	}

	c.Start()
	m.c = c
	m.s.log.Info("scheduler maintenance started",
		logx.String("cleanup", m.s.cfg.CleanupSpec),
		logx.Duration("reconcile_every", m.s.cfg.ReconcileEvery))
	return nil
}

func (m *maintenance) stop() {
	if m.c == nil {
		return
	}
	<-m.c.Stop().Done()
	m.c = nil
}

// runCleanup hard-deletes completed reminders older than the retention
// window. Their successors carry the recurrence chain forward, so nothing
// pending is ever touched.
func (m *maintenance) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	completed := true
	cutoff := time.Now().AddDate(0, 0, -m.s.cfg.RetentionDays)
	n, err := m.s.store.DeleteMany(ctx, storage.Filter{
		Completed:      &completed,
		ScheduledUntil: cutoff,
	})
	if err != nil {
		m.s.log.Warn("cleanup failed", logx.Err(err))
		return
	}
	if n > 0 {
		m.s.log.Info("cleaned up old reminders", logx.Int64("deleted", n))
	}
}

func (m *maintenance) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := m.s.Initialize(ctx); err != nil {
		m.s.log.Warn("reconcile sweep failed", logx.Err(err))
	}
}
