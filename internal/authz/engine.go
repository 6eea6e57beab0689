// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package authz implements role-based endpoint authorization.
//
// Every guarded route declares a Metadata value listing the roles
// allowed to reach it. The engine resolves the caller's role fresh from
// the account store on each decision, so role changes apply immediately
// without waiting for tokens to expire.
package authz

import (
	"context"
	"time"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

// Pseudo-roles that can appear in a route's allowed-role list alongside
// concrete account roles.
const (
	// Everyone allows any caller, authenticated or not.
	Everyone = "$everyone"

	// Unauthenticated allows callers without a verified principal.
	Unauthenticated = "$unauthenticated"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Metadata declares the authorization policy of a single route.
type Metadata struct {
	// Resource names the guarded endpoint, used for logging and metrics.
	Resource string

	// AllowedRoles lists the roles permitted to invoke the route. An
	// empty list denies everyone, including admins.
	AllowedRoles []string
}

// RoleProvider resolves the current role of an account. The engine
// defines its own interface so it can be tested without a real store.
type RoleProvider interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// Engine evaluates route policies against request principals.
type Engine struct {
	roles RoleProvider
}

// NewEngine creates an authorization engine backed by the given role
// provider.
func NewEngine(roles RoleProvider) *Engine {
	return &Engine{roles: roles}
}

// Authorize decides whether the principal (nil for anonymous callers)
// may invoke the route described by meta.
//
// Evaluation order:
//  1. An empty allowed-role list denies unconditionally.
//  2. Everyone allows unconditionally.
//  3. Without a principal, Unauthenticated is the only way in.
//  4. Otherwise the caller's stored role must appear in the list. A
//     failed role lookup denies rather than erroring: a caller whose
//     account vanished mid-request holds no roles.
func (e *Engine) Authorize(ctx context.Context, principal *auth.Principal, meta Metadata) Decision {
	start := time.Now()
	decision := e.authorize(ctx, principal, meta)
	observeDecision(meta.Resource, decision, time.Since(start))

	if decision == Deny {
		logging.Ctx(ctx).Debug().
			Str("resource", meta.Resource).
			Strs("allowed_roles", meta.AllowedRoles).
			Bool("authenticated", principal != nil).
			Msg("authorization denied")
	}
	return decision
}

func (e *Engine) authorize(ctx context.Context, principal *auth.Principal, meta Metadata) Decision {
	if len(meta.AllowedRoles) == 0 {
		return Deny
	}

	if containsRole(meta.AllowedRoles, Everyone) {
		return Allow
	}

	if principal == nil {
		if containsRole(meta.AllowedRoles, Unauthenticated) {
			return Allow
		}
		return Deny
	}

	acct, err := e.roles.FindByID(ctx, principal.ID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("user_id", principal.ID).
			Str("resource", meta.Resource).
			Msg("role lookup failed during authorization")
		return Deny
	}

	if containsRole(meta.AllowedRoles, acct.Role) {
		return Allow
	}
	return Deny
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
