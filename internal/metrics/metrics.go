// Package metrics exposes Prometheus collectors for the workflow and wires
// them into the state machine's hook points.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/workflow"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	Turns              *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	Refinements        *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	GenerationFailures *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckwright",
			Name:      "turns_total",
			Help:      "Processed user turns by starting state and classified intent.",
		}, []string{"state", "intent"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckwright",
			Name:      "transitions_total",
			Help:      "Workflow state transitions by edge.",
		}, []string{"from", "to", "intent"}),
		Refinements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckwright",
			Name:      "refinements_total",
			Help:      "Applied refinement operations by type.",
		}, []string{"op"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "deckwright",
			Name:      "generation_duration_seconds",
			Help:      "Latency of artifact generation calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"kind"}),
		GenerationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deckwright",
			Name:      "generation_failures_total",
			Help:      "Failed artifact generation calls.",
		}, []string{"kind"}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deckwright",
			Name:      "version_conflicts_total",
			Help:      "Turns that lost the session compare-and-swap race.",
		}),
	}
	reg.MustRegister(
		m.Turns, m.Transitions, m.Refinements, m.GenerationDuration,
		m.GenerationFailures, m.VersionConflicts,
	)
	return m
}

// Hooks adapts the collectors to the state machine's observation points.
func (m *Metrics) Hooks() workflow.Hooks {
	return workflow.Hooks{
		OnTurn: func(state domain.WorkflowState, intent domain.IntentType, outcome workflow.Outcome) {
			m.Turns.WithLabelValues(string(state), string(intent)).Inc()
		},
		OnTransition: func(from, to domain.WorkflowState, intent domain.IntentType) {
			m.Transitions.WithLabelValues(string(from), string(to), string(intent)).Inc()
		},
		OnRefinement: func(op domain.RefinementOp, affected int) {
			m.Refinements.WithLabelValues(string(op)).Inc()
		},
		OnGeneration: func(kind string, elapsed time.Duration, err error) {
			m.GenerationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
			if err != nil {
				m.GenerationFailures.WithLabelValues(kind).Inc()
			}
		},
		OnConflict: func(string) {
			m.VersionConflicts.Inc()
		},
	}
}
