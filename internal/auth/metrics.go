// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts credential-verification attempts.
	// Labels:
	//   - outcome: "success", "failure"
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskforge_auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// TokenVerifications counts token verification outcomes.
	// Labels:
	//   - outcome: "success", "invalid", "stale_marker"
	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskforge_auth_token_verifications_total",
			Help: "Total number of token verification attempts",
		},
		[]string{"outcome"},
	)

	// TokensIssued counts issued tokens by scope.
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskforge_auth_tokens_issued_total",
			Help: "Total number of tokens issued",
		},
		[]string{"scope"},
	)

	// PasswordHashDuration measures bcrypt hashing latency.
	PasswordHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskforge_auth_password_hash_duration_seconds",
			Help:    "Duration of password hashing operations",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)
