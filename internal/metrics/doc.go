// Package metrics provides metrics collection for proxied requests.
//
// It uses a channel-based event pipeline to asynchronously collect metrics about:
//   - Requests forwarded to the SPA development server
//   - Failed forwards by reason
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//   - Development server reachability
//
// The collector runs in a dedicated goroutine and processes events without blocking
// the request path. Emit never blocks: when the buffer is full the event is dropped.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:        metrics.EventResponseCompleted,
//		Destination: "http://localhost:5173",
//		Duration:    15 * time.Millisecond,
//		StatusCode:  200,
//	})
//
//	snapshot := collector.Snapshot()
//
// Snapshots are served as JSON by Handler and in the Prometheus exposition
// format by PrometheusHandler.
package metrics
