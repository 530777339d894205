// Package app wires the reminder engine together: config, logging, storage,
// the Telegram adapter, delivery retry, and the scheduler stack. The App
// owns component lifecycle (init on startup, drain on shutdown); nothing in
// here is global state.
package app

import (
	"context"
	"time"

	"remindbot/internal/config"
	"remindbot/internal/notify"
	"remindbot/internal/reminder"
	"remindbot/internal/resolver"
	"remindbot/internal/services/briefing"
	"remindbot/internal/services/lifecycle"
	"remindbot/internal/services/query"
	"remindbot/internal/services/scheduler"
	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	"remindbot/internal/transport/telegram"
	logx "remindbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	adapter kit.Adapter

	sched     *scheduler.Service
	lifecycle *lifecycle.Service
	briefing  *briefing.Service
	query     *query.Service
	resolver  *resolver.Service

	updates chan kit.Update
	cancel  context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logCfg(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        storagePath(cfg),
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	ncfg, err := deliveryCfg(cfg)
	if err != nil {
		return nil, err
	}
	deliver := notify.New(ncfg, notify.AdapterDelivery(ad), log.With(logx.String("comp", "notify")))

	brief := briefing.New(store, log.With(logx.String("comp", "briefing")))

	scfg, err := schedulerCfg(cfg)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(scfg, store, deliver, brief, log.With(logx.String("comp", "scheduler")))

	defaultTZ := cfg.Scheduler.Timezone
	if defaultTZ == "" {
		defaultTZ = reminder.DefaultTimezone
	}

	a := &App{
		cfgm:      cfgm,
		log:       log,
		logs:      logSvc,
		store:     store,
		adapter:   ad,
		sched:     sched,
		briefing:  brief,
		lifecycle: lifecycle.New(store, sched, defaultTZ, log.With(logx.String("comp", "lifecycle"))),
		query:     query.New(store, defaultTZ, log.With(logx.String("comp", "query"))),
		resolver:  resolver.New(store, log.With(logx.String("comp", "resolver"))),
		updates:   make(chan kit.Update, 128),
	}
	return a, nil
}

// Accessors for the command layer built on top of this core.
func (a *App) Lifecycle() *lifecycle.Service { return a.lifecycle }
func (a *App) Query() *query.Service         { return a.query }
func (a *App) Resolver() *resolver.Service   { return a.resolver }
func (a *App) Scheduler() *scheduler.Service { return a.sched }
func (a *App) Store() storage.Store          { return a.store }
func (a *App) Updates() <-chan kit.Update    { return a.updates }

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.sched.Start(runCtx); err != nil {
		cancel()
		return err
	}
	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	// Hot reload: logging is the only component that re-reads config live.
	sub := a.cfgm.Subscribe(1)
	go func() {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(logCfg(cfg))
				a.log.Info("logging config reapplied")
			}
		}
	}()
	go func() {
		_ = a.cfgm.Watch(runCtx)
	}()

	a.log.Info("started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	_ = a.adapter.Stop(ctx)
	a.sched.Stop(ctx)
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return nil
}

func logCfg(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func storagePath(cfg *config.Config) string {
	if cfg.Storage.Path != "" {
		return cfg.Storage.Path
	}
	return "./remindbot.db"
}

func deliveryCfg(cfg *config.Config) (notify.Config, error) {
	base, err := config.ParseDurationField("delivery.retry_base", cfg.Delivery.RetryBase)
	if err != nil {
		return notify.Config{}, err
	}
	maxDelay, err := config.ParseDurationField("delivery.retry_max_delay", cfg.Delivery.RetryMaxDelay)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		RetryMax:      cfg.Delivery.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
		RatePerSec:    cfg.Delivery.RatePerSec,
	}, nil
}

func schedulerCfg(cfg *config.Config) (scheduler.Config, error) {
	reconcile, err := config.ParseDurationOrDefault("scheduler.reconcile_every", cfg.Scheduler.ReconcileEvery, 15*time.Minute)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		CleanupSpec:    cfg.Scheduler.CleanupSpec,
		RetentionDays:  cfg.Scheduler.RetentionDays,
		ReconcileEvery: reconcile,
	}, nil
}
