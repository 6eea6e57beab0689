// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/models"
)

// fakeRoleProvider maps account IDs to roles.
type fakeRoleProvider struct {
	roles map[string]string
	err   error
}

func (f *fakeRoleProvider) FindByID(_ context.Context, id string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.roles[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &models.Account{ID: id, Role: role}, nil
}

func TestAuthorize(t *testing.T) {
	provider := &fakeRoleProvider{roles: map[string]string{
		"u1": models.RoleUser,
		"a1": models.RoleRootAdmin,
	}}
	engine := NewEngine(provider)

	user := &auth.Principal{ID: "u1"}
	admin := &auth.Principal{ID: "a1"}

	tests := []struct {
		name      string
		principal *auth.Principal
		roles     []string
		want      Decision
	}{
		{name: "no allowed roles denies admin", principal: admin, roles: nil, want: Deny},
		{name: "empty allowed roles denies anonymous", principal: nil, roles: []string{}, want: Deny},
		{name: "everyone allows anonymous", principal: nil, roles: []string{Everyone}, want: Allow},
		{name: "everyone allows authenticated", principal: user, roles: []string{Everyone}, want: Allow},
		{name: "everyone wins over other entries", principal: nil, roles: []string{models.RoleRootAdmin, Everyone}, want: Allow},
		{name: "unauthenticated allows anonymous", principal: nil, roles: []string{Unauthenticated}, want: Allow},
		{name: "anonymous denied without sentinel", principal: nil, roles: []string{models.RoleUser}, want: Deny},
		{name: "matching role allows", principal: user, roles: []string{models.RoleUser, models.RoleRootAdmin}, want: Allow},
		{name: "non-matching role denies", principal: user, roles: []string{models.RoleRootAdmin}, want: Deny},
		{name: "admin role matches", principal: admin, roles: []string{models.RoleRootAdmin}, want: Allow},
		{name: "authenticated user not allowed by unauthenticated sentinel", principal: user, roles: []string{Unauthenticated}, want: Deny},
		{name: "unknown account denies", principal: &auth.Principal{ID: "ghost"}, roles: []string{models.RoleUser}, want: Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Authorize(context.Background(), tt.principal, Metadata{
				Resource:     "test",
				AllowedRoles: tt.roles,
			})
			if got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizeRoleLookupFailure(t *testing.T) {
	engine := NewEngine(&fakeRoleProvider{err: errors.New("store unavailable")})

	got := engine.Authorize(context.Background(), &auth.Principal{ID: "u1"}, Metadata{
		Resource:     "test",
		AllowedRoles: []string{models.RoleUser},
	})
	if got != Deny {
		t.Errorf("lookup failure should deny, got %v", got)
	}
}

func TestAuthorizeRefetchesRole(t *testing.T) {
	provider := &fakeRoleProvider{roles: map[string]string{"u1": models.RoleUser}}
	engine := NewEngine(provider)
	meta := Metadata{Resource: "admin-only", AllowedRoles: []string{models.RoleRootAdmin}}
	principal := &auth.Principal{ID: "u1"}

	if got := engine.Authorize(context.Background(), principal, meta); got != Deny {
		t.Fatalf("user role should be denied, got %v", got)
	}

	// Promote the account; the same principal must now be allowed
	// without reissuing anything.
	provider.roles["u1"] = models.RoleRootAdmin
	if got := engine.Authorize(context.Background(), principal, meta); got != Allow {
		t.Errorf("promoted role should be allowed, got %v", got)
	}
}

func TestDecisionString(t *testing.T) {
	if Allow.String() != "allow" || Deny.String() != "deny" {
		t.Errorf("unexpected Decision strings: %q, %q", Allow.String(), Deny.String())
	}
}
