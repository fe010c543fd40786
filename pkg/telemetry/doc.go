// Package telemetry provides observability for the apcore runtime.
//
// # Components
//
//   - logging: structured slog logger construction
//   - metrics: Prometheus metrics collection
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
//	registry := prometheus.NewRegistry()
//	engineMetrics, err := metrics.NewEngineMetrics(nil, registry)
package telemetry
