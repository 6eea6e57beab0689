// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	// ComparePassword reports whether the plaintext matches the stored
	// hash. A malformed stored hash yields false, never an error.
	ComparePassword(provided, stored string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt with a
// configurable work factor.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Costs outside
// bcrypt's supported range fall back to the default cost (10).
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// HashPassword returns the salted bcrypt hash of the plaintext.
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether provided matches the stored hash.
// Any bcrypt error (mismatch or malformed hash) is a non-match.
func (h *BcryptHasher) ComparePassword(provided, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided)) == nil
}
