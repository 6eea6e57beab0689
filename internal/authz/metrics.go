// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts authorization decisions by resource and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskforge_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"resource", "decision"},
	)

	// DecisionDuration tracks authorization decision latency. The role
	// lookup dominates, so buckets span microseconds to milliseconds.
	DecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskforge_authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

func observeDecision(resource string, decision Decision, elapsed time.Duration) {
	DecisionsTotal.WithLabelValues(resource, decision.String()).Inc()
	DecisionDuration.Observe(elapsed.Seconds())
}
