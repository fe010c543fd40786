package eventlog

import (
	"context"
	"sync"
)

// MemoryLog is an in-memory Log for tests and ephemeral worlds.
type MemoryLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append atomically appends a batch of events.
func (l *MemoryLog) Append(ctx context.Context, events []Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	return nil
}

// Since returns all events with Tick >= tick in append order.
func (l *MemoryLog) Since(ctx context.Context, tick uint64) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, len(l.events))
	for _, e := range l.events {
		if e.Tick >= tick {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of stored events.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Close is a no-op for the memory backend.
func (l *MemoryLog) Close() error { return nil }
