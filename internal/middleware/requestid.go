// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package middleware holds HTTP middleware shared across the API:
// request identification and Prometheus instrumentation.
package middleware

import (
	"context"
	"net/http"

	"github.com/taskforge/taskforge/internal/logging"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestID tags each request with a unique ID, honoring an upstream
// X-Request-ID header when present. The ID is echoed in the response
// header and threaded into the logging context so every log line of the
// request carries it.
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)

		next(w, r.WithContext(ctx))
	}
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
