// Package metrics defines the Prometheus metrics exported on /metrics.
// All Record methods are safe to call on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Question metrics
	QuestionsTotal        *prometheus.CounterVec
	AnswerDurationSeconds *prometheus.HistogramVec
	ResolverEmptyTotal    *prometheus.CounterVec

	// LLM fallback metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec
	LLMTokensTotal     *prometheus.CounterVec

	// Dataset metrics
	DatasetRows         prometheus.Gauge
	DatasetReloadsTotal *prometheus.CounterVec

	// History metrics
	HistoryWritesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		QuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_questions_total",
				Help: "Total number of answered questions by intent and answer source",
			},
			[]string{"intent", "source"}, // source: engine, llm, rejected, error
		),

		AnswerDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rma_answer_duration_seconds",
				Help:    "Time to answer a question by answer source",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),

		ResolverEmptyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_resolver_empty_total",
				Help: "Total number of engine answers computed from zero rows by intent",
			},
			[]string{"intent"},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_llm_requests_total",
				Help: "Total number of LLM fallback requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error
		),

		LLMDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rma_llm_duration_seconds",
				Help:    "LLM request duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),

		LLMFallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_llm_fallback_total",
				Help: "Total number of times a later model or provider answered after an earlier one failed",
			},
			[]string{"from", "to"},
		),

		LLMTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_llm_tokens_total",
				Help: "Total number of LLM tokens by provider and direction",
			},
			[]string{"provider", "direction"}, // direction: prompt, completion
		),

		DatasetRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rma_dataset_rows",
				Help: "Number of rows in the currently loaded RMA dataset",
			},
		),

		DatasetReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_dataset_reloads_total",
				Help: "Total number of dataset loads by status",
			},
			[]string{"status"}, // status: success, error
		),

		HistoryWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_history_writes_total",
				Help: "Total number of question history writes by status",
			},
			[]string{"status"},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: llm
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rma_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"},
		),
	}
}

// RecordQuestion records an answered question
func (m *Metrics) RecordQuestion(intent, source string, duration float64) {
	if m == nil {
		return
	}
	m.QuestionsTotal.WithLabelValues(intent, source).Inc()
	m.AnswerDurationSeconds.WithLabelValues(source).Observe(duration)
}

// RecordResolverEmpty records an engine answer computed from no rows
func (m *Metrics) RecordResolverEmpty(intent string) {
	if m == nil {
		return
	}
	m.ResolverEmptyTotal.WithLabelValues(intent).Inc()
}

// RecordLLMRequest records one LLM call
func (m *Metrics) RecordLLMRequest(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordLLMFallback records that a later answerer succeeded after an earlier one failed
func (m *Metrics) RecordLLMFallback(from, to string) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordLLMTokens records token usage reported by a provider
func (m *Metrics) RecordLLMTokens(provider string, prompt, completion int) {
	if m == nil {
		return
	}
	if prompt > 0 {
		m.LLMTokensTotal.WithLabelValues(provider, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		m.LLMTokensTotal.WithLabelValues(provider, "completion").Add(float64(completion))
	}
}

// RecordDatasetLoad records a dataset load and, on success, the new row count
func (m *Metrics) RecordDatasetLoad(status string, rows int) {
	if m == nil {
		return
	}
	m.DatasetReloadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.DatasetRows.Set(float64(rows))
	}
}

// RecordHistoryWrite records a question history write
func (m *Metrics) RecordHistoryWrite(status string) {
	if m == nil {
		return
	}
	m.HistoryWritesTotal.WithLabelValues(status).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}
