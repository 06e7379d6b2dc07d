// Package metrics exposes Prometheus counters and gauges for the monitor,
// capture dispatcher, and HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamvault/internal/capture"
)

// Metrics holds Prometheus collectors for StreamVault.
type Metrics struct {
	registry            *prometheus.Registry
	ticksTotal          prometheus.Counter
	providerErrorsTotal prometheus.Counter
	liveDetectedTotal   prometheus.Counter
	captureStartsTotal  *prometheus.CounterVec
	captureResultsTotal *prometheus.CounterVec
	captureDuration     *prometheus.HistogramVec
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	streamers           prometheus.Gauge
	capturingStreamers  prometheus.Gauge
	activeTasks         prometheus.Gauge
}

var _ capture.Observer = (*Metrics)(nil)

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamvault_monitor_ticks_total",
			Help: "Total number of completed monitor ticks",
		}),
		providerErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamvault_provider_errors_total",
			Help: "Total number of live status checks that failed",
		}),
		liveDetectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamvault_live_detected_total",
			Help: "Total number of live broadcasts that triggered a capture",
		}),
		captureStartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvault_capture_tasks_started_total",
			Help: "Total number of capture tasks launched",
		}, []string{"kind"}),
		captureResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamvault_capture_tasks_finished_total",
			Help: "Total number of capture tasks that reached a terminal status",
		}, []string{"kind", "status"}),
		captureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "streamvault_capture_task_duration_seconds",
			Help:    "Wall-clock duration of capture tasks",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800},
		}, []string{"kind"}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamvault_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamvault_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		streamers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamvault_streamers",
			Help: "Number of registered streamers",
		}),
		capturingStreamers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamvault_capturing_streamers",
			Help: "Number of streamers with a capture in progress",
		}),
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamvault_active_capture_tasks",
			Help: "Number of capture tasks currently running",
		}),
	}

	registry.MustRegister(
		m.ticksTotal,
		m.providerErrorsTotal,
		m.liveDetectedTotal,
		m.captureStartsTotal,
		m.captureResultsTotal,
		m.captureDuration,
		m.requestsTotal,
		m.errorsTotal,
		m.streamers,
		m.capturingStreamers,
		m.activeTasks,
	)
	return m
}

// IncTicks increments the completed tick counter.
func (m *Metrics) IncTicks() {
	if m != nil {
		m.ticksTotal.Inc()
	}
}

// IncProviderErrors increments the failed check counter.
func (m *Metrics) IncProviderErrors() {
	if m != nil {
		m.providerErrorsTotal.Inc()
	}
}

// IncLiveDetected increments the detection counter.
func (m *Metrics) IncLiveDetected() {
	if m != nil {
		m.liveDetectedTotal.Inc()
	}
}

// SetStreamers sets the registered streamer gauge.
func (m *Metrics) SetStreamers(n int) {
	if m != nil {
		m.streamers.Set(float64(n))
	}
}

// SetCapturing sets the capturing streamer gauge.
func (m *Metrics) SetCapturing(n int) {
	if m != nil {
		m.capturingStreamers.Set(float64(n))
	}
}

// TaskStarted records a launched capture task.
func (m *Metrics) TaskStarted(task capture.Task) {
	if m == nil {
		return
	}
	m.captureStartsTotal.WithLabelValues(string(task.Kind)).Inc()
	m.activeTasks.Inc()
}

// TaskFinished records a capture task reaching a terminal status.
func (m *Metrics) TaskFinished(task capture.Task) {
	if m == nil {
		return
	}
	m.captureResultsTotal.WithLabelValues(string(task.Kind), string(task.Status)).Inc()
	m.captureDuration.WithLabelValues(string(task.Kind)).Observe(task.Duration().Seconds())
	m.activeTasks.Dec()
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m != nil {
		m.requestsTotal.Inc()
	}
}

// IncErrors increments the HTTP error counter.
func (m *Metrics) IncErrors() {
	if m != nil {
		m.errorsTotal.Inc()
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}
