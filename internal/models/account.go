// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package models contains the shared domain types used across the
// account, auth, authz and api packages.
package models

import "time"

// Access-control roles assignable to an account.
const (
	// RoleRootAdmin grants full administrative access.
	RoleRootAdmin = "root_admin"

	// RoleUser is the default role for self-registered accounts.
	RoleUser = "user"
)

// Account statuses.
const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

// Password length bounds enforced on signup, reset and change.
const (
	PasswordMinLength = 6
	PasswordMaxLength = 24
)

// Account is the identity record for a user of the system.
//
// Password and AuthPayloadHash are hidden fields: they are persisted and
// consumed internally but never serialized into API responses (json:"-").
// AuthPayloadHash is the rotating session marker - it is the sole source
// of truth for whether previously issued tokens are still valid, and it
// is mutated only by the auth token service and the account service.
type Account struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Password        string    `json:"-"`
	Role            string    `json:"role"`
	AuthPayloadHash string    `json:"-"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	Status          string    `json:"status,omitempty"`
	EmailVerified   bool      `json:"emailVerified"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ValidPassword reports whether a plaintext password satisfies the
// account password policy (non-empty, 6 to 24 characters).
func ValidPassword(password string) bool {
	return password != "" &&
		len(password) >= PasswordMinLength &&
		len(password) <= PasswordMaxLength
}
