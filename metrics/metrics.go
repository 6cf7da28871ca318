// Package metrics provides optional Prometheus instrumentation for the
// coordination triad. A nil *Collector is valid and records nothing, so
// components can carry a collector without forcing metrics on every setup.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the triad's Prometheus metrics.
type Collector struct {
	transitions    *prometheus.CounterVec
	dispatches     *prometheus.CounterVec
	graphMutations *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with the given
// registerer (use prometheus.DefaultRegisterer for the process default).
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muteagent_session_transitions_total",
				Help: "Total handshake session state transitions",
			},
			[]string{"to"},
		),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muteagent_router_dispatches_total",
				Help: "Total router dispatches by classification and result",
			},
			[]string{"classification", "result"},
		),
		graphMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muteagent_graph_mutations_total",
				Help: "Total knowledge graph mutations by kind and dimension",
			},
			[]string{"kind", "dimension"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "muteagent_active_sessions",
				Help: "Number of handshake sessions not yet terminal",
			},
		),
	}
	reg.MustRegister(c.transitions, c.dispatches, c.graphMutations, c.activeSessions)
	return c
}

// ObserveTransition records a session transition into the given state.
func (c *Collector) ObserveTransition(to string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(to).Inc()
}

// ObserveDispatch records a router dispatch result ("ok" or "error").
func (c *Collector) ObserveDispatch(classification, result string) {
	if c == nil {
		return
	}
	c.dispatches.WithLabelValues(classification, result).Inc()
}

// ObserveGraphMutation records a knowledge graph mutation.
func (c *Collector) ObserveGraphMutation(kind, dimension string) {
	if c == nil {
		return
	}
	c.graphMutations.WithLabelValues(kind, dimension).Inc()
}

// SessionStarted increments the active session gauge.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.activeSessions.Inc()
}

// SessionFinished decrements the active session gauge.
func (c *Collector) SessionFinished() {
	if c == nil {
		return
	}
	c.activeSessions.Dec()
}
