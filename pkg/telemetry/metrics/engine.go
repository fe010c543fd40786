// Package metrics provides Prometheus instrumentation for the admission
// engine. The engine itself depends only on its Metrics interface; this
// package supplies the concrete implementation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"questforge/apcore/pkg/engine"
)

// Config names the metric namespace and subsystem.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns the default metric naming.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "questforge",
		Subsystem: "apcore",
	}
}

// EngineMetrics tracks tick outcomes, blocked invocations, and event log
// throughput.
//
// Metrics:
//   - questforge_apcore_ticks_total: Ticks by outcome (committed/rolled_back)
//   - questforge_apcore_tick_duration_seconds: Tick duration
//   - questforge_apcore_admitted_total: Admitted invocations
//   - questforge_apcore_blocked_total: Blocked invocations by kind
//   - questforge_apcore_events_appended_total: Events committed to the log
type EngineMetrics struct {
	ticksTotal   *prometheus.CounterVec
	tickDuration prometheus.Histogram

	admittedTotal prometheus.Counter
	blockedTotal  *prometheus.CounterVec

	eventsAppended prometheus.Counter
}

// NewEngineMetrics creates and registers engine metrics with the
// provided registry.
func NewEngineMetrics(cfg *Config, registry *prometheus.Registry) *EngineMetrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	em := &EngineMetrics{
		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ticks_total",
				Help:      "Total number of ticks by outcome",
			},
			[]string{"outcome"},
		),

		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tick_duration_seconds",
				Help:      "Duration of one complete tick in seconds",
				// Ticks should complete well inside a 100ms interval
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
			},
		),

		admittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "admitted_total",
				Help:      "Total number of admitted invocations",
			},
		),

		blockedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "blocked_total",
				Help:      "Total number of blocked invocations by kind",
			},
			[]string{"kind"},
		),

		eventsAppended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "events_appended_total",
				Help:      "Total number of events committed to the event log",
			},
		),
	}

	registry.MustRegister(
		em.ticksTotal,
		em.tickDuration,
		em.admittedTotal,
		em.blockedTotal,
		em.eventsAppended,
	)

	return em
}

// TickCompleted records one finished tick.
func (em *EngineMetrics) TickCompleted(duration time.Duration, admitted int, rolledBack bool) {
	outcome := "committed"
	if rolledBack {
		outcome = "rolled_back"
	}
	em.ticksTotal.WithLabelValues(outcome).Inc()
	em.tickDuration.Observe(duration.Seconds())
	em.admittedTotal.Add(float64(admitted))
}

// InvocationBlocked records one blocked invocation.
func (em *EngineMetrics) InvocationBlocked(kind engine.BlockKind) {
	em.blockedTotal.WithLabelValues(string(kind)).Inc()
}

// EventsAppended records events committed to the log.
func (em *EngineMetrics) EventsAppended(count int) {
	em.eventsAppended.Add(float64(count))
}
