// internal/utils/metrics.go
package utils

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects application metrics
type MetricsCollector struct {
	counters   map[string]*counter
	histograms map[string]*histogram

	mu sync.RWMutex
}

type counter struct {
	value int64 // atomic
}

// histogram tracks count, sum, min, max
type histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = &MetricsCollector{
			counters:   make(map[string]*counter),
			histograms: make(map[string]*histogram),
		}
	})
	return globalMetrics
}

// IncrementCounter increments a counter metric
func (m *MetricsCollector) IncrementCounter(name string) {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		c, exists = m.counters[name]
		if !exists {
			c = &counter{}
			m.counters[name] = c
		}
		m.mu.Unlock()
	}
	atomic.AddInt64(&c.value, 1)
}

// GetCounterValue gets the current value of a counter
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		return 0
	}
	return atomic.LoadInt64(&c.value)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		h, exists = m.histograms[name]
		if !exists {
			h = &histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// Snapshot returns a copy of all metrics
func (m *MetricsCollector) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(&c.value)
	}

	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"histograms": histograms,
	}
}

// AnalysisMetrics tracks per-tool analysis activity
type AnalysisMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

// NewAnalysisMetrics creates an analysis metrics recorder
func NewAnalysisMetrics() *AnalysisMetrics {
	return &AnalysisMetrics{
		metrics: GetMetricsCollector(),
		logger:  GetLogger(),
	}
}

// RecordAnalysis records one analysis invocation
func (am *AnalysisMetrics) RecordAnalysis(tool string, duration time.Duration, err error) {
	am.metrics.IncrementCounter("analyses_total")
	am.metrics.IncrementCounter("analyses_" + tool)
	am.metrics.RecordHistogram("analysis_duration_ms", duration.Milliseconds())

	if err != nil {
		am.metrics.IncrementCounter("analysis_errors_total")
		am.metrics.IncrementCounter("analysis_errors_" + tool)
	}

	am.logger.Debug("analysis recorded", map[string]interface{}{
		"tool":     tool,
		"duration": duration.Milliseconds(),
		"failed":   err != nil,
	})
}

// RecordAPIRequest records metrics for an HTTP API request
func (am *AnalysisMetrics) RecordAPIRequest(endpoint, method string, statusCode int, duration time.Duration) {
	am.metrics.IncrementCounter("api_requests_total")
	am.metrics.IncrementCounter("api_requests_" + method + "_" + endpoint)
	am.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())

	switch {
	case statusCode >= 500:
		am.metrics.IncrementCounter("api_responses_5xx")
	case statusCode >= 400:
		am.metrics.IncrementCounter("api_responses_4xx")
	default:
		am.metrics.IncrementCounter("api_responses_2xx")
	}
}

// Snapshot returns the current metrics snapshot
func (am *AnalysisMetrics) Snapshot() map[string]interface{} {
	return am.metrics.Snapshot()
}
