// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for settlement computations and actions.
const (
	OutcomeOK         = "ok"
	OutcomeEmpty      = "empty_group"
	OutcomeUnbalanced = "unbalanced"
	OutcomeStale      = "stale"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RPCRequests     *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
	Computations    *prometheus.CounterVec
	TransfersPerRun prometheus.Histogram
	Actions         *prometheus.CounterVec
	JanitorSwept    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharelyst",
			Name:      "rpc_requests_total",
			Help:      "RPC requests by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sharelyst",
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharelyst",
			Name:      "settlement_computations_total",
			Help:      "Settlement computations by outcome.",
		}, []string{"outcome"}),
		TransfersPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sharelyst",
			Name:      "settlement_transfers",
			Help:      "Number of transfers in each computed plan.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharelyst",
			Name:      "settle_actions_total",
			Help:      "Settle actions by action and outcome.",
		}, []string{"action", "outcome"}),
		JanitorSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sharelyst",
			Name:      "janitor_groups_deleted_total",
			Help:      "Memberless groups removed by the janitor.",
		}),
	}

	reg.MustRegister(
		m.RPCRequests,
		m.RPCDuration,
		m.Computations,
		m.TransfersPerRun,
		m.Actions,
		m.JanitorSwept,
	)
	return m
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// ObserveComputation records a settlement computation and, on success, the
// size of its plan.
func (m *Metrics) ObserveComputation(outcome string, transfers int) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.TransfersPerRun.Observe(float64(transfers))
	}
}

// ObserveAction records a reset or delete attempt.
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
}

// ObserveSweep records groups removed by one janitor pass.
func (m *Metrics) ObserveSweep(deleted int) {
	if m == nil {
		return
	}
	m.JanitorSwept.Add(float64(deleted))
}
