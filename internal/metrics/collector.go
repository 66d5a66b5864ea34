package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventRequestForwarded  EventType = "request_forwarded"
	EventResponseCompleted EventType = "response_completed"
	EventForwardFailed     EventType = "forward_failed"
	EventHealthChanged     EventType = "health_changed"
)

type MetricEvent struct {
	Type        EventType
	Timestamp   time.Time
	Destination string
	Duration    time.Duration
	StatusCode  int
	Reason      string
	Healthy     bool
}

type Collector struct {
	eventCh  chan MetricEvent
	metrics  *Metrics
	registry *prometheus.Registry
	logger   *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	m := NewMetrics()

	registry := prometheus.NewRegistry()
	registry.MustRegister(newPrometheusCollector(m))

	return &Collector{
		eventCh:  make(chan MetricEvent, bufferSize),
		metrics:  m,
		registry: registry,
		logger:   logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit sends event without blocking. Events are dropped when the buffer is
// full. Emit on a nil Collector is a no-op.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestForwarded:
		c.metrics.IncrementRequests(event.Destination)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Destination, event.Duration, event.StatusCode)

	case EventForwardFailed:
		c.metrics.RecordFailure(event.Destination, event.Reason)

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Destination, event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
