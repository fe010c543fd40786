package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"questforge/apcore/pkg/engine"
)

func newTestMetrics(t *testing.T) *EngineMetrics {
	t.Helper()
	return NewEngineMetrics(nil, prometheus.NewRegistry())
}

func TestTickCompleted(t *testing.T) {
	em := newTestMetrics(t)

	em.TickCompleted(5*time.Millisecond, 3, false)
	em.TickCompleted(2*time.Millisecond, 0, true)

	if got := testutil.ToFloat64(em.ticksTotal.WithLabelValues("committed")); got != 1 {
		t.Errorf("committed ticks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.ticksTotal.WithLabelValues("rolled_back")); got != 1 {
		t.Errorf("rolled back ticks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.admittedTotal); got != 3 {
		t.Errorf("admitted = %v, want 3", got)
	}
}

func TestInvocationBlocked(t *testing.T) {
	em := newTestMetrics(t)

	em.InvocationBlocked(engine.BlockDuplicate)
	em.InvocationBlocked(engine.BlockResource)
	em.InvocationBlocked(engine.BlockResource)

	if got := testutil.ToFloat64(em.blockedTotal.WithLabelValues(string(engine.BlockDuplicate))); got != 1 {
		t.Errorf("duplicate blocks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.blockedTotal.WithLabelValues(string(engine.BlockResource))); got != 2 {
		t.Errorf("resource blocks = %v, want 2", got)
	}
}

func TestEventsAppended(t *testing.T) {
	em := newTestMetrics(t)

	em.EventsAppended(4)
	em.EventsAppended(2)

	if got := testutil.ToFloat64(em.eventsAppended); got != 6 {
		t.Errorf("events appended = %v, want 6", got)
	}
}

func TestRegistersWithoutCollision(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewEngineMetrics(&Config{Namespace: "questforge", Subsystem: "apcore"}, registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	// ticksTotal and blockedTotal are vecs with no observations yet, so
	// only unlabeled collectors appear until the first increment.
	if len(families) == 0 {
		t.Error("no metric families registered")
	}
}
