package config

// Config is the full on-disk configuration. YAML and JSON are both accepted;
// unknown fields are rejected so typos fail loudly at load time.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Delivery  DeliveryConfig  `json:"delivery,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console bool          `json:"console"`
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	// Driver is "sqlite" (default) or "memory".
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string; sqlite only.
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type SchedulerConfig struct {
	// Timezone is the default IANA zone for reminders created without one.
	Timezone string `json:"timezone,omitempty"`
	// CleanupSpec is a cron expression for pruning old completed reminders.
	CleanupSpec string `json:"cleanup_spec,omitempty"`
	// RetentionDays keeps completed reminders for this many days.
	RetentionDays int `json:"retention_days,omitempty"`
	// ReconcileEvery is a Go duration string for the periodic re-arm sweep.
	ReconcileEvery string `json:"reconcile_every,omitempty"`
}

// DeliveryConfig controls the outbound retry wrapper.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type DeliveryConfig struct {
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
}
