package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the plan engine and the control
// surface. A disabled Metrics instance is a no-op and safe to call.
type Metrics struct {
	config MetricsConfig

	// Scheduling metrics
	cycleDuration   prometheus.Histogram
	candidatesTotal *prometheus.CounterVec
	stepsStarted    *prometheus.CounterVec
	taskUpdates     prometheus.Counter

	// Plan metrics
	planComplete *prometheus.GaugeVec

	// Control surface metrics
	commandsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scheduling_cycle_duration_seconds",
				Help:      "Duration of one candidate-selection cycle across all plans",
				Buckets:   prometheus.DefBuckets,
			},
		),
		candidatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_selected_total",
				Help:      "Total number of candidate steps selected for work",
			},
			[]string{"plan"},
		),
		stepsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_started_total",
				Help:      "Total number of steps started",
			},
			[]string{"plan", "phase"},
		),
		taskUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_updates_total",
				Help:      "Total number of task status updates fanned into plans",
			},
		),
		planComplete: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plan_complete",
				Help:      "Whether the plan is complete (1) or not (0)",
			},
			[]string{"plan"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_commands_total",
				Help:      "Total number of control surface commands by outcome",
			},
			[]string{"command", "outcome"},
		),
	}

	registry.MustRegister(
		m.cycleDuration,
		m.candidatesTotal,
		m.stepsStarted,
		m.taskUpdates,
		m.planComplete,
		m.commandsTotal,
	)

	return m, nil
}

// RecordCycle records the duration of one full candidate-selection cycle.
func (m *Metrics) RecordCycle(d time.Duration) {
	if m.registry == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

// RecordCandidates records the number of candidates selected for a plan in
// one cycle.
func (m *Metrics) RecordCandidates(planName string, count int) {
	if m.registry == nil {
		return
	}
	m.candidatesTotal.WithLabelValues(planName).Add(float64(count))
}

// RecordStepStarted records that a step was started.
func (m *Metrics) RecordStepStarted(planName, phaseName string) {
	if m.registry == nil {
		return
	}
	m.stepsStarted.WithLabelValues(planName, phaseName).Inc()
}

// RecordTaskUpdate records one task status update fanned into the plans.
func (m *Metrics) RecordTaskUpdate() {
	if m.registry == nil {
		return
	}
	m.taskUpdates.Inc()
}

// SetPlanComplete publishes whether the named plan is complete.
func (m *Metrics) SetPlanComplete(planName string, complete bool) {
	if m.registry == nil {
		return
	}
	v := 0.0
	if complete {
		v = 1.0
	}
	m.planComplete.WithLabelValues(planName).Set(v)
}

// RecordCommand records one control surface command and its outcome
// (ok, noop, not_found, bad_request).
func (m *Metrics) RecordCommand(command, outcome string) {
	if m.registry == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, outcome).Inc()
}

// Handler returns an HTTP handler serving the metrics in Prometheus
// exposition format, or nil if metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
