package config

import "time"

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.TickInterval == 0 {
		cfg.Engine.TickInterval = 100 * time.Millisecond
	}
	if cfg.Engine.QueueSize == 0 {
		cfg.Engine.QueueSize = 1024
	}
	if cfg.Engine.MaxCandidatesPerTick == 0 {
		cfg.Engine.MaxCandidatesPerTick = 256
	}
	if cfg.Engine.MaxRules == 0 {
		cfg.Engine.MaxRules = 1000
	}

	if cfg.Rules.Path == "" {
		cfg.Rules.Path = "rules/"
	}
	if cfg.Rules.DebounceInterval == 0 {
		cfg.Rules.DebounceInterval = 100 * time.Millisecond
	}

	if cfg.EventLog.Backend == "" {
		cfg.EventLog.Backend = "sqlite"
	}
	if cfg.EventLog.SQLitePath == "" {
		cfg.EventLog.SQLitePath = "data/events.db"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:9090"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "questforge"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "apcore"
	}
}
