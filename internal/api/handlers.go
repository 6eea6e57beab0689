// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package api exposes the REST surface: account lifecycle endpoints,
// health, and Prometheus metrics.
package api

import (
	"context"
	"net/http"

	"github.com/taskforge/taskforge/internal/account"
	"github.com/taskforge/taskforge/internal/auth"
)

// TokenVerifier issues and verifies tokens from the handlers' point of
// view.
type TokenVerifier interface {
	GenerateToken(ctx context.Context, principal *auth.Principal) (string, error)
	RefreshToken(ctx context.Context, principal *auth.Principal) (string, error)
	VerifyToken(ctx context.Context, token string) (*auth.Principal, error)
}

// Handler carries the services the REST endpoints delegate to.
type Handler struct {
	accounts *account.Service
	tokens   TokenVerifier
}

// NewHandler wires the REST handlers.
func NewHandler(accounts *account.Service, tokens TokenVerifier) *Handler {
	return &Handler{accounts: accounts, tokens: tokens}
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}
