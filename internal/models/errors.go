// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package models

import (
	"errors"
	"net/http"
)

// ErrorKind classifies an application error independently of the HTTP
// transport. The api package maps kinds to status codes in one place.
type ErrorKind int

const (
	// KindUnauthorized covers absent/invalid/expired/stale tokens and
	// wrong credentials.
	KindUnauthorized ErrorKind = iota + 1

	// KindForbidden is an authorization DENY decision.
	KindForbidden

	// KindNotFound means a referenced account no longer exists.
	KindNotFound

	// KindConflict is a duplicate-email signup.
	KindConflict

	// KindUnprocessable is input that fails format or length validation.
	KindUnprocessable

	// KindBadRequest is a failed downstream dependency (mail dispatch,
	// persistence write) or otherwise malformed request state.
	KindBadRequest
)

// HTTPStatus maps an error kind to the HTTP status code used on the wire.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a typed application error with a stable machine-readable
// code. Clients branch on Code, not on message text.
type AppError struct {
	Kind ErrorKind
	Code string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Code
}

// Is allows errors.Is comparisons against sentinel AppErrors by code.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

// NewAppError constructs an AppError with the given kind and code.
func NewAppError(kind ErrorKind, code string) *AppError {
	return &AppError{Kind: kind, Code: code}
}

// ErrAccountNotFound is shared between the auth and account packages:
// both resolve accounts from the store and report a missing record with
// the same stable code.
var ErrAccountNotFound = NewAppError(KindNotFound, "user_not_existed")

// AsAppError unwraps err into an *AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
