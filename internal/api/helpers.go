// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

// maxRequestBody caps request payload size. Auth payloads are tiny;
// anything larger is abuse.
const maxRequestBody = 1 << 20 // 1 MiB

// respondJSON writes a success envelope with the given status and data.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if status == http.StatusNoContent {
		return
	}

	resp := &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// respondError maps an error to the envelope. AppErrors carry their own
// status and stable code; anything else becomes an opaque 500 so
// internal details never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal server error"

	if appErr, ok := models.AsAppError(err); ok {
		status = appErr.Kind.HTTPStatus()
		code = appErr.Code
		message = appErr.Error()
	} else {
		logging.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		logging.Ctx(r.Context()).Error().Err(encodeErr).Msg("failed to encode error response")
	}
}

// decodeBody parses a JSON request body into dst. Unknown fields are
// tolerated; malformed JSON returns a BadRequest AppError.
func decodeBody(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewAppError(models.KindBadRequest, "invalid_request_body")
	}
	return nil
}
