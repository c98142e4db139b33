package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes recorded on printdesk_tasks_total.
const (
	StatusSuccess = "success"
	StatusRetry   = "retry"
	StatusDropped = "dropped"
)

// Metrics exposes Prometheus collectors for background tasks.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the task metrics against registerer, or once against
// the default Prometheus registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments a single task run.
type Tracker struct {
	metrics *Metrics
	task    string
	start   time.Time
}

// Track starts a tracker for the given task type.
func (m *Metrics) Track(task string) *Tracker {
	if m == nil {
		return &Tracker{task: task, start: time.Now()}
	}
	return &Tracker{metrics: m, task: task, start: m.now()}
}

// End records the run and returns err untouched. Errors wrapping
// asynq.SkipRetry count as dropped, other errors as retries.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.task == "" {
		return err
	}
	m := t.metrics
	status := Outcome(err)
	if status != StatusSuccess {
		m.failures.WithLabelValues(t.task).Inc()
	} else {
		m.lastSuccess.WithLabelValues(t.task).Set(float64(m.now().Unix()))
	}
	m.runs.WithLabelValues(t.task, status).Inc()
	m.duration.WithLabelValues(t.task).Observe(m.now().Sub(t.start).Seconds())
	return err
}

// Outcome classifies a handler result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, asynq.SkipRetry):
		return StatusDropped
	default:
		return StatusRetry
	}
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_tasks_total",
		Help: "Background task executions by task type and outcome.",
	}, []string{"task", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printdesk_tasks_failures_total",
		Help: "Failed background task executions.",
	}, []string{"task"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printdesk_task_duration_seconds",
		Help:    "Background task execution time.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"task"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "printdesk_task_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run per task type.",
	}, []string{"task"})
	registerer.MustRegister(runs, failures, duration, lastSuccess)
	return &Metrics{
		runs:        runs,
		failures:    failures,
		duration:    duration,
		lastSuccess: lastSuccess,
		now:         time.Now,
	}
}
