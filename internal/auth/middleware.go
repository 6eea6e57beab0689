// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

// JWTCookieName is the cookie consulted when no Authorization header is
// present. The header takes precedence when both are supplied.
const JWTCookieName = "jwt"

// TokenVerifier verifies a bearer token into a principal.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Principal, error)
}

// Middleware authenticates incoming requests against the token service.
type Middleware struct {
	tokens TokenVerifier
}

// NewMiddleware creates authentication middleware backed by the given
// token verifier.
func NewMiddleware(tokens TokenVerifier) *Middleware {
	return &Middleware{tokens: tokens}
}

// ExtractToken pulls the bearer token from the Authorization header or,
// failing that, the jwt cookie. Returns ("", false) when neither is
// present or the header is malformed.
func ExtractToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookie, err := r.Cookie(JWTCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	return "", false
}

// Authenticate enforces a valid token: the request is rejected when no
// token is presented or verification fails. On success the verified
// principal is attached to the request context.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := ExtractToken(r)
		if !ok {
			writeAuthError(w, r, ErrInvalidToken)
			return
		}

		principal, err := m.tokens.VerifyToken(r.Context(), token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("authentication failed")
			writeAuthError(w, r, err)
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// AuthenticateOptional attaches a principal when a valid token is
// presented but lets anonymous requests through. A token that is present
// and invalid is still rejected: clients must not silently degrade to
// anonymous access.
func (m *Middleware) AuthenticateOptional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := ExtractToken(r)
		if !ok {
			next(w, r)
			return
		}

		principal, err := m.tokens.VerifyToken(r.Context(), token)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// writeAuthError renders an authentication failure in the standard API
// error envelope.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := models.AsAppError(err)
	if !ok {
		appErr = ErrInvalidToken
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.HTTPStatus())
	encodeErr := json.NewEncoder(w).Encode(&models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    appErr.Code,
			Message: "authentication failed",
		},
	})
	if encodeErr != nil {
		logging.Ctx(r.Context()).Error().Err(encodeErr).Msg("failed to encode auth error response")
	}
}
