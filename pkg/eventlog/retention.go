package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CheckpointStore is the subset of the SQLite backend the pruner needs.
// Splitting it out lets tests substitute a fake store.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, tick uint64, snapshot []byte) error
	PruneBefore(ctx context.Context, tick uint64) (int64, error)
}

// SnapshotFunc produces the current tick and a serialized snapshot of
// the world at that tick. The engine provides this.
type SnapshotFunc func() (uint64, []byte, error)

// RetentionConfig controls checkpoint-and-prune behavior.
type RetentionConfig struct {
	// CheckpointSchedule is a standard cron expression. Empty disables
	// retention entirely.
	CheckpointSchedule string

	// KeepTicks retains at least this many ticks of events below the
	// checkpoint. 0 prunes everything the checkpoint supersedes.
	KeepTicks uint64
}

// DefaultRetentionConfig returns the default retention configuration:
// hourly checkpoints, keeping one checkpoint's worth of history.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		CheckpointSchedule: "0 * * * *",
		KeepTicks:          0,
	}
}

// Pruner checkpoints the current snapshot and prunes the events the
// checkpoint supersedes. Replay from the stored checkpoint plus the
// surviving events reproduces the live snapshot.
type Pruner struct {
	config   *RetentionConfig
	store    CheckpointStore
	snapshot SnapshotFunc
	logger   *slog.Logger
}

// NewPruner creates a pruner over the given store and snapshot source.
func NewPruner(config *RetentionConfig, store CheckpointStore, snapshot SnapshotFunc) *Pruner {
	if config == nil {
		config = DefaultRetentionConfig()
	}
	return &Pruner{
		config:   config,
		store:    store,
		snapshot: snapshot,
		logger:   slog.Default().With("component", "eventlog.pruner"),
	}
}

// Prune runs one checkpoint-then-prune cycle and returns the number of
// events deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	tick, data, err := p.snapshot()
	if err != nil {
		return 0, fmt.Errorf("retention: snapshot world: %w", err)
	}

	if err := p.store.SaveCheckpoint(ctx, tick, data); err != nil {
		return 0, fmt.Errorf("retention: checkpoint at tick %d: %w", tick, err)
	}

	cutoff := uint64(0)
	if tick > p.config.KeepTicks {
		cutoff = tick - p.config.KeepTicks
	}
	if cutoff == 0 {
		return 0, nil
	}

	deleted, err := p.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention: prune before tick %d: %w", cutoff, err)
	}
	return deleted, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a retention scheduler over the given pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "eventlog.scheduler"),
	}
}

// Start begins scheduled checkpointing based on the cron expression in
// the pruner's config. An empty schedule disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.CheckpointSchedule
	if schedule == "" {
		s.logger.Info("checkpoint schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.runPruning(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule retention: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"keep_ticks", s.pruner.config.KeepTicks,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPruning executes one checkpoint-and-prune cycle.
func (s *Scheduler) runPruning(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled retention failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled retention completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled retention completed, no events deleted")
	}
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled checkpoint time, if any.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
