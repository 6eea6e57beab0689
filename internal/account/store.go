// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package account implements account persistence and the credential
// lifecycle: signup, login, password reset and change, and email
// verification.
package account

import (
	"context"

	"github.com/taskforge/taskforge/internal/models"
)

// Store is the persistence interface for accounts. The Badger
// implementation is used in production; tests substitute an in-memory
// fake.
type Store interface {
	// Create persists a new account. Fails with ErrUserExisted when the
	// email is already registered.
	Create(ctx context.Context, acct *models.Account) error

	// Update rewrites an existing account record in a single write, so
	// password-and-marker updates are atomic.
	Update(ctx context.Context, acct *models.Account) error

	// FindByEmail resolves an account by its unique email address.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// FindByID resolves an account by ID. Returns
	// models.ErrAccountNotFound when absent.
	FindByID(ctx context.Context, id string) (*models.Account, error)

	// SaveAuthPayloadHash persists only the session marker of an
	// existing account.
	SaveAuthPayloadHash(ctx context.Context, id, marker string) error

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*models.Account, error)

	// Count returns the number of stored accounts.
	Count(ctx context.Context) (int64, error)
}
