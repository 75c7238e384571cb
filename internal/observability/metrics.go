package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for action dispatch.
//
// It tracks:
//   - actions by name and outcome, with latency
//   - helper process invocations by tool and outcome, with latency
//   - destructive key combos that were blocked pending confirmation
//   - failures by error kind
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(reg)
//	metrics.RecordAction("computer_click", "success", time.Since(start).Seconds())
type Metrics struct {
	// ActionCounter counts dispatched actions.
	// Labels: action, status (success|error)
	ActionCounter *prometheus.CounterVec

	// ActionDuration measures end-to-end action latency in seconds.
	// Labels: action
	ActionDuration *prometheus.HistogramVec

	// ProcessCounter counts helper invocations.
	// Labels: tool (xdotool|import), status (success|error)
	ProcessCounter *prometheus.CounterVec

	// ProcessDuration measures helper latency in seconds.
	// Labels: tool
	ProcessDuration *prometheus.HistogramVec

	// BlockedCombos counts key requests rejected for lack of confirmation.
	// Labels: combo
	BlockedCombos *prometheus.CounterVec

	// ErrorCounter counts failures by error kind.
	// Labels: action, kind
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// means the Prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ActionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computex_actions_total",
				Help: "Total number of computer-use actions by action and status",
			},
			[]string{"action", "status"},
		),

		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "computex_action_duration_seconds",
				Help:    "Duration of computer-use actions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"action"},
		),

		ProcessCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computex_process_runs_total",
				Help: "Total number of helper process invocations by tool and status",
			},
			[]string{"tool", "status"},
		),

		ProcessDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "computex_process_duration_seconds",
				Help:    "Duration of helper process invocations in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"tool"},
		),

		BlockedCombos: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computex_blocked_combos_total",
				Help: "Total number of destructive key combos blocked pending confirmation",
			},
			[]string{"combo"},
		),

		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "computex_errors_total",
				Help: "Total number of action failures by action and error kind",
			},
			[]string{"action", "kind"},
		),
	}
}

// RecordAction records the outcome and latency of one action.
func (m *Metrics) RecordAction(action, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ActionCounter.WithLabelValues(action, status).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(durationSeconds)
}

// RecordProcess records the outcome and latency of one helper invocation.
func (m *Metrics) RecordProcess(tool, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ProcessCounter.WithLabelValues(tool, status).Inc()
	m.ProcessDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// RecordBlockedCombo increments the blocked combo counter.
//
// Example:
//
//	metrics.RecordBlockedCombo("ctrl+w")
func (m *Metrics) RecordBlockedCombo(combo string) {
	if m == nil {
		return
	}
	m.BlockedCombos.WithLabelValues(combo).Inc()
}

// RecordError increments the error counter for an action and error kind.
func (m *Metrics) RecordError(action, kind string) {
	if m == nil {
		return
	}
	m.ErrorCounter.WithLabelValues(action, kind).Inc()
}
