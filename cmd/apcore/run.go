package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"questforge/apcore/pkg/config"
	"questforge/apcore/pkg/engine"
	"questforge/apcore/pkg/engine/source"
	"questforge/apcore/pkg/eventlog"
	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
	"questforge/apcore/pkg/telemetry/health"
	"questforge/apcore/pkg/telemetry/logging"
	"questforge/apcore/pkg/telemetry/metrics"
)

var runFlags struct {
	rulesPath string
	logLevel  string
	dryRun    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the admission engine",
	Long: `Start the admission engine with the specified configuration.

The engine loads the initial world snapshot and rule files, then drives
the fixed-rate tick loop: draining submitted invocations, admitting a
conflict-free batch, applying effects, validating invariants, and
committing to the event log.

Examples:
  # Start with default config
  apcore run

  # Start with custom config
  apcore run --config /etc/apcore/config.yaml

  # Override the rules path
  apcore run --rules rules/

  # Validate config without starting the engine
  apcore run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.rulesPath, "rules", "r", "", "override rules path")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and rules without starting the engine")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.rulesPath != "" {
		cfg.Rules.Path = runFlags.rulesPath
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the initial world.
	initial, err := loadWorld(cfg.World.Path)
	if err != nil {
		return err
	}

	// Load rules and invariants.
	ruleSource := source.NewFileSource(cfg.Rules.Path, logger)
	rules, invariants, err := loadRules(ctx, ruleSource)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	if runFlags.dryRun {
		fmt.Printf("✓ Configuration valid (%d rules, %d invariants)\n", len(rules), len(invariants))
		return nil
	}

	// Open the event log.
	log, err := openEventLog(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	// Assemble the engine.
	eng, err := engine.NewEngine(&engine.Config{
		TickInterval:         cfg.Engine.TickInterval,
		QueueSize:            cfg.Engine.QueueSize,
		MaxCandidatesPerTick: cfg.Engine.MaxCandidatesPerTick,
		MaxRules:             cfg.Engine.MaxRules,
	}, initial, log, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	if err := eng.ReplaceAll(rules, invariants); err != nil {
		return fmt.Errorf("failed to register rules: %w", err)
	}

	// Metrics and health endpoints.
	if cfg.Telemetry.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		eng.UseMetrics(metrics.NewEngineMetrics(&metrics.Config{
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: cfg.Telemetry.Metrics.Subsystem,
		}, registry))

		checker := health.New(0)
		checker.RegisterCheck("event_log", func(ctx context.Context) error {
			_, err := log.Since(ctx, eng.CurrentTick()+1)
			return err
		})
		checker.RegisterCheck("rules", func(ctx context.Context) error {
			if eng.Registry().Len() == 0 {
				return fmt.Errorf("no rules registered")
			}
			return nil
		})

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		health.Register(mux, checker)
		go func() {
			slog.Info("telemetry endpoint listening", "address", cfg.Telemetry.Metrics.ListenAddress)
			if err := http.ListenAndServe(cfg.Telemetry.Metrics.ListenAddress, mux); err != nil {
				slog.Error("telemetry endpoint failed", "error", err)
			}
		}()
	}

	// Hot reload.
	if cfg.Rules.Watch {
		watcher, err := source.NewFileWatcher(&source.FileWatcherConfig{
			Path:             cfg.Rules.Path,
			DebounceInterval: cfg.Rules.DebounceInterval,
			Extensions:       []string{".yaml", ".yml"},
			SkipHidden:       true,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create rule watcher: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, func() error {
				rules, invariants, err := loadRules(ctx, ruleSource)
				if err != nil {
					return &engine.ReloadError{Source: cfg.Rules.Path, Cause: err}
				}
				if err := eng.ReplaceAll(rules, invariants); err != nil {
					return &engine.ReloadError{Source: cfg.Rules.Path, Cause: err}
				}
				return nil
			})
			if err != nil {
				slog.Error("rule watcher exited", "error", err)
			}
		}()
	}

	// Retention.
	if cfg.Retention.CheckpointSchedule != "" {
		if store, ok := log.(eventlog.CheckpointStore); ok {
			pruner := eventlog.NewPruner(&eventlog.RetentionConfig{
				CheckpointSchedule: cfg.Retention.CheckpointSchedule,
				KeepTicks:          cfg.Retention.KeepTicks,
			}, store, eng.CheckpointSource())
			scheduler := eventlog.NewScheduler(pruner)
			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start retention scheduler: %w", err)
			}
			defer scheduler.Stop()
		} else {
			slog.Warn("retention configured but event log backend does not support checkpoints",
				"backend", cfg.EventLog.Backend)
		}
	}

	fmt.Printf("✓ Engine started (%d rules, tick every %s)\n", len(rules), cfg.Engine.TickInterval)

	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// loadWorld reads the initial snapshot JSON. An empty path yields an
// empty world.
func loadWorld(path string) (state.Snapshot, error) {
	if path == "" {
		return state.Snapshot{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("failed to read world file %q: %w", path, err)
	}
	var world map[string]map[string]map[string]any
	if err := json.Unmarshal(data, &world); err != nil {
		return state.Snapshot{}, fmt.Errorf("failed to parse world file %q: %w", path, err)
	}
	return state.New(world), nil
}

// loadRules loads every document from the source and flattens it into
// one rule and invariant set.
func loadRules(ctx context.Context, src *source.FileSource) ([]*ast.Rule, []*ast.Invariant, error) {
	docs, err := src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	var rules []*ast.Rule
	var invariants []*ast.Invariant
	for _, doc := range docs {
		rules = append(rules, doc.Rules...)
		invariants = append(invariants, doc.Invariants...)
	}
	return rules, invariants, nil
}

// openEventLog builds the configured event log backend.
func openEventLog(cfg *config.Config) (eventlog.Log, error) {
	switch cfg.EventLog.Backend {
	case "memory":
		return eventlog.NewMemoryLog(), nil
	case "sqlite":
		sc := eventlog.DefaultSQLiteConfig()
		sc.Path = cfg.EventLog.SQLitePath
		log, err := eventlog.NewSQLiteLog(sc)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		return log, nil
	default:
		return nil, fmt.Errorf("unknown event log backend %q", cfg.EventLog.Backend)
	}
}
