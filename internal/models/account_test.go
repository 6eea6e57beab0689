// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "minimum length", password: "secret", want: true},
		{name: "maximum length", password: strings.Repeat("a", 24), want: true},
		{name: "typical password", password: "secret1", want: true},
		{name: "empty", password: "", want: false},
		{name: "too short", password: "ab", want: false},
		{name: "one under minimum", password: "abcde", want: false},
		{name: "one over maximum", password: strings.Repeat("a", 25), want: false},
		{name: "far over maximum", password: "averylongpasswordover24chars", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPassword(tt.password); got != tt.want {
				t.Errorf("ValidPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestAccountJSONHidesCredentialFields(t *testing.T) {
	acct := Account{
		ID:              "abc",
		Email:           "a@b.com",
		Password:        "$2a$10$secret",
		AuthPayloadHash: "$2a$10$secret - 1700000000000",
		Role:            RoleUser,
	}

	data, err := json.Marshal(&acct)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	body := string(data)
	if strings.Contains(body, "secret") {
		t.Errorf("serialized account leaks credential material: %s", body)
	}
	if strings.Contains(body, "authPayloadHash") || strings.Contains(body, "password") {
		t.Errorf("serialized account exposes hidden field names: %s", body)
	}
}

func TestAppErrorIs(t *testing.T) {
	a := NewAppError(KindConflict, "user_existed")
	b := NewAppError(KindConflict, "user_existed")
	c := NewAppError(KindNotFound, "user_not_existed")

	if !a.Is(b) {
		t.Error("errors with identical codes should match")
	}
	if a.Is(c) {
		t.Error("errors with different codes should not match")
	}
}
