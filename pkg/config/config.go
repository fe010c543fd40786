package config

import "time"

// Config is the root configuration structure for the apcore runtime.
type Config struct {
	// Engine contains tick timing and capacity settings.
	Engine EngineConfig `yaml:"engine"`

	// World contains the initial snapshot location.
	World WorldConfig `yaml:"world"`

	// Rules contains the rule source location and watch mode.
	Rules RulesConfig `yaml:"rules"`

	// EventLog contains event log backend selection and settings.
	EventLog EventLogConfig `yaml:"event_log"`

	// Retention contains checkpoint-and-prune settings.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains tick loop settings.
type EngineConfig struct {
	// TickInterval is the fixed rate of the tick loop.
	// Default: 100ms
	TickInterval time.Duration `yaml:"tick_interval"`

	// QueueSize is the capacity of the candidate submission queue.
	// Default: 1024
	QueueSize int `yaml:"queue_size"`

	// MaxCandidatesPerTick caps the candidate batch per tick.
	// Default: 256
	MaxCandidatesPerTick int `yaml:"max_candidates_per_tick"`

	// MaxRules caps the rule registry size.
	// Default: 1000
	MaxRules int `yaml:"max_rules"`
}

// WorldConfig contains the initial world snapshot location.
type WorldConfig struct {
	// Path is a JSON file holding the initial subsystem → entity →
	// attribute mapping. Empty starts from an empty world.
	// Default: "" (empty world)
	Path string `yaml:"path"`
}

// RulesConfig contains the rule source configuration.
type RulesConfig struct {
	// Path is the rule file or directory to load.
	// Default: "rules/"
	Path string `yaml:"path"`

	// Watch enables hot reload on rule file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a watched change
	// triggers a reload.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// EventLogConfig contains event log backend settings.
type EventLogConfig struct {
	// Backend selects the event log implementation: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/events.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// RetentionConfig contains checkpoint-and-prune settings.
type RetentionConfig struct {
	// CheckpointSchedule is a standard cron expression. Empty disables
	// retention.
	// Default: "" (disabled)
	CheckpointSchedule string `yaml:"checkpoint_schedule"`

	// KeepTicks retains at least this many ticks of events below each
	// checkpoint.
	// Default: 0
	KeepTicks uint64 `yaml:"keep_ticks"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metric settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the /metrics endpoint listens on.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the metric namespace prefix.
	// Default: "questforge"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem prefix.
	// Default: "apcore"
	Subsystem string `yaml:"subsystem"`
}
