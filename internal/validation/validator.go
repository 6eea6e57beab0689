// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package validation provides struct validation using go-playground/validator v10.
// It exposes a thread-safe singleton validator instance so struct metadata is
// parsed and cached once.
//
// Example usage:
//
//	type SignupRequest struct {
//	    Email    string `json:"email" validate:"required,email"`
//	    Password string `json:"password" validate:"required,min=6,max=24"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    // err.Fields() lists each failing field
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes a single failing field.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Error returns a human-readable message for the failing field.
func (e FieldError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s failed %s=%s validation", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
}

// StructError is the collection of field errors for one validated struct.
type StructError struct {
	fields []FieldError
}

// Fields returns the individual field errors.
func (e *StructError) Fields() []FieldError {
	return e.fields
}

// Error implements the error interface.
func (e *StructError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.fields))
	for i, f := range e.fields {
		messages[i] = f.Error()
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil on success, or *StructError listing every failing field.
func ValidateStruct(s interface{}) *StructError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError (nil or non-struct input)
		return &StructError{fields: []FieldError{{Field: "", Tag: "struct"}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return &StructError{fields: fields}
}

// IsEmail reports whether the value is a syntactically valid email address.
func IsEmail(value string) bool {
	return GetValidator().Var(value, "required,email") == nil
}
