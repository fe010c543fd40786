package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive, got %v", cfg.Engine.TickInterval)
	}
	if cfg.Engine.QueueSize <= 0 {
		return fmt.Errorf("engine.queue_size must be positive, got %d", cfg.Engine.QueueSize)
	}
	if cfg.Engine.MaxCandidatesPerTick <= 0 {
		return fmt.Errorf("engine.max_candidates_per_tick must be positive, got %d", cfg.Engine.MaxCandidatesPerTick)
	}
	if cfg.Engine.MaxRules <= 0 {
		return fmt.Errorf("engine.max_rules must be positive, got %d", cfg.Engine.MaxRules)
	}

	if cfg.Rules.Path == "" {
		return fmt.Errorf("rules.path must not be empty")
	}
	if cfg.Rules.DebounceInterval <= 0 {
		return fmt.Errorf("rules.debounce_interval must be positive, got %v", cfg.Rules.DebounceInterval)
	}

	switch cfg.EventLog.Backend {
	case "sqlite":
		if cfg.EventLog.SQLitePath == "" {
			return fmt.Errorf("event_log.sqlite_path must not be empty for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("event_log.backend must be %q or %q, got %q", "sqlite", "memory", cfg.EventLog.Backend)
	}

	if cfg.Retention.CheckpointSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.CheckpointSchedule); err != nil {
			return fmt.Errorf("retention.checkpoint_schedule %q is not a valid cron expression: %w",
				cfg.Retention.CheckpointSchedule, err)
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error; got %q",
			cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be %q or %q, got %q",
			"json", "text", cfg.Telemetry.Logging.Format)
	}

	return nil
}
