package engine

import "time"

// Metrics receives engine observations. The engine depends only on this
// interface; the prometheus implementation lives in pkg/telemetry/metrics.
type Metrics interface {
	// TickCompleted records one finished tick.
	TickCompleted(duration time.Duration, admitted int, rolledBack bool)

	// InvocationBlocked records one blocked invocation by kind.
	InvocationBlocked(kind BlockKind)

	// EventsAppended records events committed to the log.
	EventsAppended(count int)
}

// nopMetrics discards all observations.
type nopMetrics struct{}

func (nopMetrics) TickCompleted(time.Duration, int, bool) {}
func (nopMetrics) InvocationBlocked(BlockKind)            {}
func (nopMetrics) EventsAppended(int)                     {}
