// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

// EnsureRootAdmin creates the root admin account on first start. The
// call is idempotent: an existing account under the system email is
// left untouched, so a restart never resets the admin password.
//
// When SYSTEM_INIT_PASSWORD is unset, bootstrap is skipped entirely;
// deployments that provision their admin out of band stay unaffected.
func EnsureRootAdmin(ctx context.Context, store Store, hasher auth.PasswordHasher, cfg *config.AuthConfig) error {
	if cfg.SystemInitPassword == "" {
		logging.Ctx(ctx).Debug().Msg("no system init password set, skipping root admin bootstrap")
		return nil
	}

	_, err := store.FindByEmail(ctx, cfg.SystemEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return fmt.Errorf("root admin lookup failed: %w", err)
	}

	hash, err := hasher.HashPassword(cfg.SystemInitPassword)
	if err != nil {
		return fmt.Errorf("hashing root admin password: %w", err)
	}

	now := time.Now().UTC()
	acct := &models.Account{
		ID:            uuid.NewString(),
		Email:         cfg.SystemEmail,
		Password:      hash,
		Role:          models.RoleRootAdmin,
		Status:        models.AccountStatusActive,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.Create(ctx, acct); err != nil {
		// A concurrent replica may have won the race.
		if errors.Is(err, ErrUserExisted) {
			return nil
		}
		return fmt.Errorf("creating root admin: %w", err)
	}

	logging.Ctx(ctx).Info().Str("email", cfg.SystemEmail).Msg("root admin account created")
	return nil
}
