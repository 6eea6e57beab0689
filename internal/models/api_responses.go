// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package models

import "time"

// APIResponse is the standardized envelope returned by every HTTP endpoint.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "invalid_credentials", "message": "invalid email or password"},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is the structured error body. Code is one of the stable
// machine-readable codes from the account error taxonomy; Message is
// advisory human-readable text that clients must not parse.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TokenResponse is the body returned by login and token refresh.
type TokenResponse struct {
	Token string `json:"token"`
}

// CountResponse is the body returned by count endpoints.
type CountResponse struct {
	Count int64 `json:"count"`
}
