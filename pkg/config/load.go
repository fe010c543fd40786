package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides of the form APCORE_SECTION_FIELD
// (e.g. APCORE_ENGINE_TICK_INTERVAL). Environment variables take
// precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("APCORE_ENGINE_TICK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.TickInterval = d
		}
	}
	if val := os.Getenv("APCORE_ENGINE_QUEUE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.QueueSize = i
		}
	}
	if val := os.Getenv("APCORE_ENGINE_MAX_CANDIDATES_PER_TICK"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxCandidatesPerTick = i
		}
	}
	if val := os.Getenv("APCORE_ENGINE_MAX_RULES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxRules = i
		}
	}

	if val := os.Getenv("APCORE_RULES_PATH"); val != "" {
		cfg.Rules.Path = val
	}
	if val := os.Getenv("APCORE_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}

	if val := os.Getenv("APCORE_EVENT_LOG_BACKEND"); val != "" {
		cfg.EventLog.Backend = val
	}
	if val := os.Getenv("APCORE_EVENT_LOG_SQLITE_PATH"); val != "" {
		cfg.EventLog.SQLitePath = val
	}

	if val := os.Getenv("APCORE_RETENTION_CHECKPOINT_SCHEDULE"); val != "" {
		cfg.Retention.CheckpointSchedule = val
	}
	if val := os.Getenv("APCORE_RETENTION_KEEP_TICKS"); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Retention.KeepTicks = i
		}
	}

	if val := os.Getenv("APCORE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("APCORE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("APCORE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
