// Package metrics exposes Prometheus observability for the staffing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's own prometheus registry.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// RosterBuildsTotal counts roster builds by result (ok / error).
var RosterBuildsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "roster",
	Name:      "builds_total",
	Help:      "Total roster builds by result",
}, []string{"result"})

// RosterBuildSeconds tracks how long a full roster build takes, external
// reads included.
var RosterBuildSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "roster",
	Name:      "build_duration_seconds",
	Help:      "Time taken to build a ranked agent roster",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// RosterAgents tracks the roster size of the latest successful build.
var RosterAgents = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "roster",
	Name:      "agents",
	Help:      "Number of agents in the most recent roster",
})

// AssignmentsTotal counts assignment attempts by outcome:
// assigned, no_areas, no_eligible_agents, no_capacity, roster_unavailable.
var AssignmentsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assignment",
	Name:      "attempts_total",
	Help:      "Assignment attempts by outcome",
}, []string{"outcome"})

// AssignmentSkipsTotal counts candidates skipped because the committing
// mutation failed.
var AssignmentSkipsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "assignment",
	Name:      "candidate_skips_total",
	Help:      "Candidates skipped after a failed assignee mutation",
})

// CostWritesTotal counts cost recomputations by result:
// written, no_assignee, no_rate, write_failed.
var CostWritesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cost",
	Name:      "writes_total",
	Help:      "Labor cost recomputations by result",
}, []string{"result"})
