// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package auth

import "context"

// Principal is the verified identity attached to a request context after
// token verification. It lives only for the duration of one request.
// The role is deliberately not carried here: authorization re-fetches it
// per check so role changes take effect without reissuing tokens.
type Principal struct {
	ID    string
	Email string
}

type contextKey string

// PrincipalContextKey is the request-context key under which the
// verified Principal is stored.
const PrincipalContextKey contextKey = "principal"

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// PrincipalFromContext retrieves the verified principal from context.
// Returns nil when no valid token was presented.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalContextKey).(*Principal); ok {
		return p
	}
	return nil
}
