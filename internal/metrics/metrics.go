package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxResponseSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	failures      map[string]map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                         `json:"total_requests"`
	TotalFailures int64                         `json:"total_failures"`
	Uptime        time.Duration                 `json:"uptime"`
	Destinations  map[string]DestinationMetrics `json:"destinations"`
}

type DestinationMetrics struct {
	Requests    int64            `json:"requests"`
	Failures    map[string]int64 `json:"failures"`
	Healthy     bool             `json:"healthy"`
	AvgResponse time.Duration    `json:"avg_response"`
	P50Response time.Duration    `json:"p50_response"`
	P95Response time.Duration    `json:"p95_response"`
	P99Response time.Duration    `json:"p99_response"`
	StatusCodes map[int]int64    `json:"status_codes"`
}

func (m *Metrics) IncrementRequests(destination string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[destination]++
}

func (m *Metrics) RecordFailure(destination, reason string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.failures[destination] == nil {
		m.failures[destination] = make(map[string]int64)
	}
	m.failures[destination][reason]++
}

func (m *Metrics) RecordResponse(destination string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[destination] = append(m.responseTimes[destination], duration)

	if len(m.responseTimes[destination]) > maxResponseSamples {
		m.responseTimes[destination] = m.responseTimes[destination][1:]
	}

	if m.statusCodes[destination] == nil {
		m.statusCodes[destination] = make(map[int]int64)
	}
	m.statusCodes[destination][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(destination string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[destination] = healthy
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:       time.Since(m.startTime),
		Destinations: make(map[string]DestinationMetrics),
	}

	// Collect all unique destination URLs
	all := make(map[string]bool)
	for destination := range m.requests {
		all[destination] = true
	}
	for destination := range m.failures {
		all[destination] = true
	}
	for destination := range m.responseTimes {
		all[destination] = true
	}
	for destination := range m.healthStatus {
		all[destination] = true
	}

	for destination := range all {
		snap.TotalRequests += m.requests[destination]

		dm := DestinationMetrics{
			Requests:    m.requests[destination],
			Failures:    copyCounts(m.failures[destination]),
			Healthy:     m.healthStatus[destination],
			StatusCodes: copyCounts(m.statusCodes[destination]),
		}

		for _, n := range dm.Failures {
			snap.TotalFailures += n
		}

		durations := m.responseTimes[destination]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			dm.AvgResponse = average(sorted)
			dm.P50Response = percentile(sorted, 0.50)
			dm.P95Response = percentile(sorted, 0.95)
			dm.P99Response = percentile(sorted, 0.99)
		}

		snap.Destinations[destination] = dm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		failures:      make(map[string]map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func copyCounts[K comparable](counts map[K]int64) map[K]int64 {
	out := make(map[K]int64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
