package eventlog

import (
	"context"
	"time"
)

// Event records one committed rule invocation. Events are immutable once
// written; the log is append-only.
type Event struct {
	// ID is a globally unique event identifier.
	ID string

	// Tick is the logical tick the invocation committed in.
	Tick uint64

	// Seq is the admission order within the tick.
	Seq int

	// Where is the symbolic location of the event, when the invocation
	// bound one ("tavern", "dungeon_3"). Informational only.
	Where string

	// RuleID names the committed rule.
	RuleID string

	// Bindings is the invocation's resolved symbol context. Together
	// with RuleID it is sufficient to re-apply the invocation on replay.
	Bindings map[string]string

	// Recorded is the wall-clock append time. Metadata only: replay
	// never reads it.
	Recorded time.Time
}

// Log is the append-only event store. Append is the only mutator.
type Log interface {
	// Append atomically appends a batch of events.
	Append(ctx context.Context, events []Event) error

	// Since returns all events with Tick >= tick, ordered by (tick, seq).
	Since(ctx context.Context, tick uint64) ([]Event, error)

	// Close releases backend resources.
	Close() error
}
