package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"questforge/apcore/pkg/eventlog"
	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

// Engine owns the world snapshot and drives the tick state machine:
// drain candidates, admit, apply, validate, then commit to the event log
// or roll the whole batch back. Subsystems interact with the engine only
// through Submit, Explain, and the published snapshot; they never mutate
// state directly.
type Engine struct {
	config    *Config
	registry  *Registry
	scheduler *Scheduler
	validator *Validator
	log       eventlog.Log
	logger    *slog.Logger
	metrics   Metrics

	// tickMu serializes ticks; snapMu guards the published snapshot so
	// readers never observe a tick mid-flight.
	tickMu sync.Mutex
	snapMu sync.RWMutex
	snap   state.Snapshot
	tick   uint64

	queue chan Invocation
}

// NewEngine creates an engine over the initial snapshot. A nil config
// uses defaults; a nil log falls back to the in-memory backend.
func NewEngine(cfg *Config, initial state.Snapshot, log eventlog.Log, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = eventlog.NewMemoryLog()
	}
	if logger == nil {
		logger = slog.Default()
	}

	evaluator := NewEvaluator(logger)
	return &Engine{
		config:    cfg,
		registry:  NewRegistry(cfg, logger),
		scheduler: NewScheduler(evaluator, logger),
		validator: NewValidator(nil, logger),
		log:       log,
		logger:    logger.With("component", "engine"),
		metrics:   nopMetrics{},
		snap:      initial,
		queue:     make(chan Invocation, cfg.QueueSize),
	}, nil
}

// UseMetrics installs a metrics sink. Call before Run.
func (e *Engine) UseMetrics(m Metrics) {
	if m != nil {
		e.metrics = m
	}
}

// Registry exposes the rule table for registration and inspection.
func (e *Engine) Registry() *Registry { return e.registry }

// Register adds one rule to the table.
func (e *Engine) Register(rule *ast.Rule) error {
	return e.registry.Register(rule)
}

// ReplaceAll atomically swaps the rule table and invariant set, the hot
// reload path. On error the previous table and invariants stay in effect.
func (e *Engine) ReplaceAll(rules []*ast.Rule, invariants []*ast.Invariant) error {
	if err := e.registry.ReplaceAll(rules); err != nil {
		return err
	}
	e.validator.ReplaceAll(invariants)
	return nil
}

// Snapshot returns the current committed snapshot. Snapshots are
// immutable, so callers may hold the value across ticks.
func (e *Engine) Snapshot() state.Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap
}

// CurrentTick returns the last committed tick number.
func (e *Engine) CurrentTick() uint64 {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.tick
}

// Submit enqueues a candidate invocation for the next tick. It fails
// with ErrQueueFull rather than blocking the caller.
func (e *Engine) Submit(inv Invocation) error {
	select {
	case e.queue <- inv:
		return nil
	default:
		return fmt.Errorf("%w: dropping invocation of %s", ErrQueueFull, inv.RuleID)
	}
}

// Explain dry-runs a single invocation against the current snapshot: it
// reports whether the invocation would be admitted on a tick containing
// only itself, without mutating anything.
func (e *Engine) Explain(ruleID string, bindings map[string]string) DryRun {
	inv := Invocation{RuleID: ruleID, Bindings: bindings}
	result := e.scheduler.Admit(e.Snapshot(), e.registry.View(), []Invocation{inv})

	if len(result.Admitted) == 1 {
		return DryRun{WouldAdmit: true}
	}
	if len(result.Blocked) > 0 {
		return DryRun{WouldAdmit: false, Reason: result.Blocked[0].Reason}
	}
	return DryRun{WouldAdmit: false, Reason: "invocation produced no admission decision"}
}

// Tick runs one complete tick over the given candidates and returns its
// result. On invariant violation or event-log failure the snapshot is
// left untouched and the error describes the rollback; the TickResult is
// still returned so callers can inspect the admission decision.
func (e *Engine) Tick(ctx context.Context, candidates []Invocation) (*TickResult, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	started := time.Now()

	var overflow []Invocation
	if len(candidates) > e.config.MaxCandidatesPerTick {
		overflow = candidates[e.config.MaxCandidatesPerTick:]
		candidates = candidates[:e.config.MaxCandidatesPerTick]
	}

	prior := e.Snapshot()
	tick := e.CurrentTick() + 1

	// One view for the whole tick: a concurrent ReplaceAll cannot change
	// the rules between admission and effect application.
	rules := e.registry.View()

	admission := e.scheduler.Admit(prior, rules, candidates)
	for _, inv := range overflow {
		admission.Blocked = append(admission.Blocked, BlockedInvocation{
			Invocation: inv,
			Kind:       BlockCapacity,
			Reason:     fmt.Sprintf("tick capacity exceeded (max %d candidates)", e.config.MaxCandidatesPerTick),
		})
	}
	for _, b := range admission.Blocked {
		e.metrics.InvocationBlocked(b.Kind)
	}

	result := &TickResult{
		Tick:      tick,
		Admission: admission,
		Snapshot:  prior,
	}

	next, err := Apply(prior, admission.Admitted, rules)
	if err != nil {
		// Admission screened rules and footprints on the same view, so a
		// kernel failure is an effect-level error such as a non-numeric
		// add value.
		result.RolledBack = true
		e.metrics.TickCompleted(time.Since(started), 0, true)
		return result, fmt.Errorf("tick %d: apply failed, tick rolled back: %w", tick, err)
	}

	if violations := e.validator.Check(next); len(violations) > 0 {
		result.RolledBack = true
		result.Violations = violations
		e.metrics.TickCompleted(time.Since(started), 0, true)
		e.logger.Warn("tick rolled back on invariant violation",
			"tick", tick,
			"violations", len(violations),
			"first", violations[0].Message,
		)
		return result, &ValidationFailureError{Tick: tick, Violations: violations}
	}

	events := makeEvents(tick, admission.Admitted)
	if err := e.log.Append(ctx, events); err != nil {
		result.RolledBack = true
		e.metrics.TickCompleted(time.Since(started), 0, true)
		e.logger.Error("tick rolled back on event log failure", "tick", tick, "error", err)
		return result, &CommitError{Tick: tick, Cause: err}
	}
	e.metrics.EventsAppended(len(events))

	e.snapMu.Lock()
	e.snap = next
	e.tick = tick
	e.snapMu.Unlock()

	result.Snapshot = next
	e.metrics.TickCompleted(time.Since(started), len(admission.Admitted), false)

	e.logger.Debug("tick committed",
		"tick", tick,
		"admitted", len(admission.Admitted),
		"blocked", len(admission.Blocked),
	)

	return result, nil
}

// Run drives the fixed-rate tick loop, draining the candidate queue each
// interval, until the context is cancelled. Rollbacks are logged and the
// loop continues; only context cancellation ends it.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	e.logger.Info("engine started",
		"tick_interval", e.config.TickInterval,
		"rules", e.registry.Len(),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "final_tick", e.CurrentTick())
			return ctx.Err()
		case <-ticker.C:
			candidates := e.drain()
			if len(candidates) == 0 {
				continue
			}
			if _, err := e.Tick(ctx, candidates); err != nil {
				e.logger.Warn("tick failed", "error", err)
			}
		}
	}
}

// drain empties the candidate queue up to the per-tick cap.
func (e *Engine) drain() []Invocation {
	var out []Invocation
	for len(out) < e.config.MaxCandidatesPerTick {
		select {
		case inv := <-e.queue:
			out = append(out, inv)
		default:
			return out
		}
	}
	return out
}

// ExportEvents returns the committed history with Tick >= since.
func (e *Engine) ExportEvents(ctx context.Context, since uint64) ([]eventlog.Event, error) {
	return e.log.Since(ctx, since)
}

// VerifyReplay folds the full event history over the initial snapshot
// and compares the result to the live snapshot. A mismatch means
// determinism was broken somewhere and is reported as an error.
func (e *Engine) VerifyReplay(ctx context.Context, initial state.Snapshot) error {
	events, err := e.log.Since(ctx, 0)
	if err != nil {
		return fmt.Errorf("replay: load events: %w", err)
	}

	replayed, err := Replay(initial, events, e.registry)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	if !replayed.Equal(e.Snapshot()) {
		return fmt.Errorf("replay: replayed snapshot diverges from live snapshot at tick %d", e.CurrentTick())
	}
	return nil
}

// CheckpointSource adapts the engine to the retention pruner: it
// serializes the current snapshot alongside its tick.
func (e *Engine) CheckpointSource() eventlog.SnapshotFunc {
	return func() (uint64, []byte, error) {
		e.snapMu.RLock()
		tick := e.tick
		snap := e.snap
		e.snapMu.RUnlock()

		data, err := json.Marshal(snap.Data())
		if err != nil {
			return 0, nil, fmt.Errorf("marshal snapshot at tick %d: %w", tick, err)
		}
		return tick, data, nil
	}
}

// Replay reproduces a snapshot by folding each event's invocation
// through the transition kernel in (tick, seq) order. The rule source
// must hold the same rule definitions that produced the events.
func Replay(initial state.Snapshot, events []eventlog.Event, rules RuleSource) (state.Snapshot, error) {
	snap := initial
	for _, ev := range events {
		inv := Invocation{RuleID: ev.RuleID, Bindings: ev.Bindings}
		next, err := Apply(snap, []Invocation{inv}, rules)
		if err != nil {
			return state.Snapshot{}, fmt.Errorf("event %s (tick %d seq %d): %w", ev.ID, ev.Tick, ev.Seq, err)
		}
		snap = next
	}
	return snap, nil
}

// makeEvents builds the tick's log entries from the admitted list.
func makeEvents(tick uint64, admitted []Invocation) []eventlog.Event {
	events := make([]eventlog.Event, 0, len(admitted))
	for i, inv := range admitted {
		events = append(events, eventlog.Event{
			ID:       uuid.NewString(),
			Tick:     tick,
			Seq:      i,
			Where:    inv.Bindings["location"],
			RuleID:   inv.RuleID,
			Bindings: inv.Bindings,
			Recorded: time.Now().UTC(),
		})
	}
	return events
}
