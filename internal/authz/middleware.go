// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package authz

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

// ErrForbidden is returned to callers whose role does not satisfy the
// route policy.
var ErrForbidden = models.NewAppError(models.KindForbidden, "access_denied")

// Middleware guards HTTP routes with the authorization engine.
type Middleware struct {
	engine *Engine
}

// NewMiddleware creates route-guarding middleware around the engine.
func NewMiddleware(engine *Engine) *Middleware {
	return &Middleware{engine: engine}
}

// Guard wraps a handler with the policy described by meta. The wrapped
// handler runs only when the engine allows the request; everything else
// receives a 403 in the standard envelope.
func (m *Middleware) Guard(meta Metadata, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if m.engine.Authorize(r.Context(), principal, meta) != Allow {
			writeForbidden(w, r)
			return
		}
		next(w, r)
	}
}

func writeForbidden(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	err := json.NewEncoder(w).Encode(&models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    ErrForbidden.Code,
			Message: "insufficient permissions",
		},
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode forbidden response")
	}
}
