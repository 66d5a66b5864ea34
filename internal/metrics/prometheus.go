package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spa_proxy"

// prometheusCollector exposes Metrics snapshots as const metrics on scrape.
type prometheusCollector struct {
	metrics *Metrics

	requests  *prometheus.Desc
	failures  *prometheus.Desc
	responses *prometheus.Desc
	latency   *prometheus.Desc
	up        *prometheus.Desc
}

func newPrometheusCollector(m *Metrics) *prometheusCollector {
	return &prometheusCollector{
		metrics: m,
		requests: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "requests_total"),
			"Requests forwarded to the SPA development server.",
			[]string{"destination"}, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "failures_total"),
			"Failed forwards by reason.",
			[]string{"destination", "reason"}, nil,
		),
		responses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "responses_total"),
			"Relayed responses by status code.",
			[]string{"destination", "code"}, nil,
		),
		latency: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "response_duration_seconds"),
			"Response duration quantiles over the most recent forwards.",
			[]string{"destination", "quantile"}, nil,
		),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "destination_up"),
			"Whether the last reachability probe succeeded.",
			[]string{"destination"}, nil,
		),
	}
}

func (p *prometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.requests
	ch <- p.failures
	ch <- p.responses
	ch <- p.latency
	ch <- p.up
}

func (p *prometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := p.metrics.Snapshot()

	for destination, dm := range snap.Destinations {
		ch <- prometheus.MustNewConstMetric(p.requests, prometheus.CounterValue, float64(dm.Requests), destination)

		for reason, n := range dm.Failures {
			ch <- prometheus.MustNewConstMetric(p.failures, prometheus.CounterValue, float64(n), destination, reason)
		}

		for code, n := range dm.StatusCodes {
			ch <- prometheus.MustNewConstMetric(p.responses, prometheus.CounterValue, float64(n), destination, strconv.Itoa(code))
		}

		quantiles := map[string]float64{
			"0.5":  dm.P50Response.Seconds(),
			"0.95": dm.P95Response.Seconds(),
			"0.99": dm.P99Response.Seconds(),
		}
		for q, v := range quantiles {
			ch <- prometheus.MustNewConstMetric(p.latency, prometheus.GaugeValue, v, destination, q)
		}

		up := 0.0
		if dm.Healthy {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(p.up, prometheus.GaugeValue, up, destination)
	}
}
