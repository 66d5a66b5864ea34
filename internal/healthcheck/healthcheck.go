package healthcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/angeloszaimis/spa-proxy/internal/metrics"
)

// Target is a probed destination and its last known reachability.
type Target struct {
	url       *url.URL
	mutex     sync.Mutex
	isHealthy bool
	checked   bool
}

// NewTarget creates a Target for u. Its status is unknown until the first
// probe completes.
func NewTarget(u *url.URL) *Target {
	return &Target{url: u}
}

// URL returns the probed URL.
func (t *Target) URL() *url.URL {
	return t.url
}

// IsHealthy returns true if the last probe reached the destination.
func (t *Target) IsHealthy() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.isHealthy
}

// SetHealthy records a probe result.
// Returns true if the status changed or this is the first result.
func (t *Target) SetHealthy(healthy bool) (changed bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.checked && t.isHealthy == healthy {
		return false
	}

	t.checked = true
	t.isHealthy = healthy
	return true
}

// Probe reports whether the destination answered with any HTTP response.
func Probe(ctx context.Context, client *http.Client, u *url.URL) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, io.LimitReader(res.Body, 64*1024))
	res.Body.Close()

	return true
}

// HealthCheck probes target immediately and then on every interval tick until
// ctx is done.
func HealthCheck(
	ctx context.Context,
	target *Target,
	client *http.Client,
	interval time.Duration,
	logger *slog.Logger,
	collector *metrics.Collector,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		check(ctx, target, client, logger, collector)

		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("server", target.URL().String()))
			return

		case <-ticker.C:
		}
	}
}

func check(ctx context.Context, target *Target, client *http.Client, logger *slog.Logger, collector *metrics.Collector) {
	healthy := Probe(ctx, client, target.URL())
	if ctx.Err() != nil {
		return
	}

	if !target.SetHealthy(healthy) {
		return
	}

	if healthy {
		logger.Info("SPA development server is reachable",
			slog.String("server", target.URL().String()))
	} else {
		logger.Warn("SPA development server is not reachable",
			slog.String("server", target.URL().String()))
	}

	collector.Emit(metrics.MetricEvent{
		Type:        metrics.EventHealthChanged,
		Destination: target.URL().String(),
		Healthy:     healthy,
	})
}
