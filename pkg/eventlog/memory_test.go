package eventlog

import (
	"context"
	"testing"
	"time"
)

func makeEvents(tick uint64, count int) []Event {
	events := make([]Event, count)
	for i := range events {
		events[i] = Event{
			ID:       time.Now().Format("20060102150405.000000000") + string(rune('a'+i)),
			Tick:     tick,
			Seq:      i,
			RuleID:   "rule",
			Bindings: map[string]string{"actor": "player"},
			Recorded: time.Now(),
		}
	}
	return events
}

func TestMemoryLogAppendSince(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()

	if err := log.Append(ctx, makeEvents(1, 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := log.Append(ctx, makeEvents(2, 1)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if log.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", log.Len())
	}

	all, err := log.Since(ctx, 0)
	if err != nil {
		t.Fatalf("Since() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Since(0) = %d events, want 3", len(all))
	}

	later, err := log.Since(ctx, 2)
	if err != nil {
		t.Fatalf("Since() error = %v", err)
	}
	if len(later) != 1 || later[0].Tick != 2 {
		t.Errorf("Since(2) = %+v, want only tick 2", later)
	}
}

func TestMemoryLogEmptyAppend(t *testing.T) {
	log := NewMemoryLog()
	if err := log.Append(context.Background(), nil); err != nil {
		t.Fatalf("Append(nil) error = %v", err)
	}
	if log.Len() != 0 {
		t.Errorf("Len() = %d, want 0", log.Len())
	}
}
