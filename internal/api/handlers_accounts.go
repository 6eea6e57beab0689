// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package api

import (
	"net/http"

	"github.com/taskforge/taskforge/internal/account"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/validation"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type sendResetPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	NewPassword        string `json:"newPassword" validate:"required"`
	ResetPasswordToken string `json:"resetPasswordToken" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Login authenticates email/password credentials and returns a
// login-scoped token. Existing sessions stay valid.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, account.ErrInvalidCredentials)
		return
	}

	acct, err := h.accounts.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateToken(r.Context(), &auth.Principal{ID: acct.ID, Email: acct.Email})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.TokenResponse{Token: token})
}

// Signup registers a new account and returns it. The verification email
// goes out in the background.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, signupValidationError(verr))
		return
	}

	acct, err := h.accounts.CreateUser(r.Context(), account.CreateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, acct)
}

// signupValidationError maps a signup struct-validation failure to the
// domain error for the first failing field.
func signupValidationError(verr *validation.StructError) error {
	if fields := verr.Fields(); len(fields) > 0 && fields[0].Field == "Password" {
		return account.ErrInvalidPassword
	}
	return account.ErrInvalidEmail
}

// RefreshToken rotates the caller's session marker and returns a fresh
// token, invalidating every previously issued token.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	token, err := h.tokens.RefreshToken(r.Context(), principal)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.TokenResponse{Token: token})
}

// SendResetPasswordEmail starts the password reset flow for the given
// email address.
func (h *Handler) SendResetPasswordEmail(w http.ResponseWriter, r *http.Request) {
	var req sendResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, account.ErrInvalidEmail)
		return
	}

	if err := h.accounts.SendResetPasswordLink(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// ResetPassword completes a reset using the emailed token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	principal, err := h.tokens.VerifyToken(r.Context(), req.ResetPasswordToken)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.accounts.ResetUserPassword(r.Context(), principal, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// ChangePassword is the authenticated password change.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, account.ErrInvalidNewPassword)
		return
	}

	if err := h.accounts.ChangeUserPassword(r.Context(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// Verify marks the caller's email address as verified.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	if _, err := h.accounts.VerifyUser(r.Context(), principal.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// SendVerifyEmail re-sends the verification email to the caller.
func (h *Handler) SendVerifyEmail(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	if err := h.accounts.SendVerifyAccountEmail(r.Context(), principal.ID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// Me returns the caller's account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	acct, err := h.accounts.GetAccount(r.Context(), principal.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, acct)
}

// ListAccounts returns all accounts. Restricted to root admins by the
// route policy.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, accounts)
}

// CountAccounts returns the number of registered accounts.
func (h *Handler) CountAccounts(w http.ResponseWriter, r *http.Request) {
	count, err := h.accounts.CountAccounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, &models.CountResponse{Count: count})
}
