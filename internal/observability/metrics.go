package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console's Prometheus collectors on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	phaseTransitions *prometheus.CounterVec
	phaseMinutes     *prometheus.HistogramVec
	jobsCompleted    *prometheus.CounterVec
	orderSyncs       *prometheus.CounterVec
}

// NewMetrics builds the registry with HTTP, production and Go runtime collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_phase_transitions_total",
		Help: "Phase transitions grouped by phase kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})
	minutes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printdesk_phase_duration_minutes",
		Help:    "Recorded duration of completed phases in minutes.",
		Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 960},
	}, []string{"kind"})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_jobs_completed_total",
		Help: "Production jobs that reached the completed status.",
	}, []string{"type"})
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_order_sync_total",
		Help: "Order status synchronisations triggered by production, by mode and outcome.",
	}, []string{"mode", "outcome"})
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests, duration, transitions, minutes, completed, syncs,
	)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		phaseTransitions: transitions,
		phaseMinutes:     minutes,
		jobsCompleted:    completed,
		orderSyncs:       syncs,
	}
}

// Handler serves the registry for /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer lets other packages, such as the task metrics, share the registry.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// PhaseTransition counts one start, end or skip attempt.
func (m *Metrics) PhaseTransition(kind, action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	if kind == "" {
		kind = "other"
	}
	m.phaseTransitions.WithLabelValues(kind, action, outcome).Inc()
}

// PhaseDuration records the minutes a completed phase took.
func (m *Metrics) PhaseDuration(kind string, minutes int) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "other"
	}
	m.phaseMinutes.WithLabelValues(kind).Observe(float64(minutes))
}

// JobCompleted counts a job reaching completion.
func (m *Metrics) JobCompleted(jobType string) {
	if m == nil {
		return
	}
	m.jobsCompleted.WithLabelValues(jobType).Inc()
}

// OrderSync counts an order status synchronisation.
func (m *Metrics) OrderSync(mode string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.orderSyncs.WithLabelValues(mode, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
