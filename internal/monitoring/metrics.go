package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Provider metrics
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	ProviderErrors   *prometheus.CounterVec
	PromptTokens     *prometheus.CounterVec
	CompletionTokens *prometheus.CounterVec

	// Tracing backend metrics
	EventsBuffered prometheus.Gauge
	EventsSent     prometheus.Counter
	EventsDropped  prometheus.Counter
	BatchesSent    prometheus.Counter
	BatchErrors    prometheus.Counter
	ScoresRecorded *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Provider metrics
		ProviderCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_provider_calls_total",
				Help: "Total number of chat-completion provider calls",
			},
			[]string{"model", "status"},
		),
		ProviderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_provider_duration_seconds",
				Help:    "Provider call duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"model"},
		),
		ProviderErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_provider_errors_total",
				Help: "Total number of provider errors",
			},
			[]string{"model", "error_type"},
		),
		PromptTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_prompt_tokens_total",
				Help: "Total prompt tokens consumed",
			},
			[]string{"model"},
		),
		CompletionTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_completion_tokens_total",
				Help: "Total completion tokens produced",
			},
			[]string{"model"},
		),

		// Tracing backend metrics
		EventsBuffered: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_trace_events_buffered",
				Help: "Number of ingestion events waiting in the buffer",
			},
		),
		EventsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_trace_events_sent_total",
				Help: "Total ingestion events delivered to the tracing backend",
			},
		),
		EventsDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_trace_events_dropped_total",
				Help: "Total ingestion events dropped after delivery failure",
			},
		),
		BatchesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_trace_batches_sent_total",
				Help: "Total ingestion batches delivered",
			},
		),
		BatchErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_trace_batch_errors_total",
				Help: "Total ingestion batch delivery failures",
			},
		),
		ScoresRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_scores_recorded_total",
				Help: "Total scores recorded against traces",
			},
			[]string{"name"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_uptime_seconds",
				Help: "Gateway uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordProviderCall records a chat-completion call outcome
func (m *Metrics) RecordProviderCall(model, status string, duration time.Duration) {
	m.ProviderCalls.WithLabelValues(model, status).Inc()
	m.ProviderDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordProviderError records a provider error by type
func (m *Metrics) RecordProviderError(model, errorType string) {
	m.ProviderErrors.WithLabelValues(model, errorType).Inc()
}

// RecordTokenUsage records prompt and completion token counts
func (m *Metrics) RecordTokenUsage(model string, promptTokens, completionTokens int) {
	m.PromptTokens.WithLabelValues(model).Add(float64(promptTokens))
	m.CompletionTokens.WithLabelValues(model).Add(float64(completionTokens))
}

// SetEventsBuffered sets the current ingestion buffer depth
func (m *Metrics) SetEventsBuffered(count int) {
	m.EventsBuffered.Set(float64(count))
}

// RecordBatchSent records a successful ingestion batch delivery
func (m *Metrics) RecordBatchSent(eventCount int) {
	m.BatchesSent.Inc()
	m.EventsSent.Add(float64(eventCount))
}

// RecordBatchError records a failed ingestion batch delivery
func (m *Metrics) RecordBatchError(droppedEvents int) {
	m.BatchErrors.Inc()
	m.EventsDropped.Add(float64(droppedEvents))
}

// RecordScore records a score submission by name
func (m *Metrics) RecordScore(name string) {
	m.ScoresRecorded.WithLabelValues(name).Inc()
}
