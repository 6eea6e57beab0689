// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package account

import "github.com/taskforge/taskforge/internal/models"

// Stable error codes for the credential lifecycle. Clients branch on
// the code, never on message text.
var (
	// ErrUserExisted rejects a signup whose email is already registered.
	ErrUserExisted = models.NewAppError(models.KindConflict, "user_existed")

	// ErrInvalidCredentials is the single generic login failure. Unknown
	// email and wrong password deliberately share it so responses do not
	// leak which accounts exist.
	ErrInvalidCredentials = models.NewAppError(models.KindUnauthorized, "invalid_credentials")

	// ErrInvalidEmail rejects a malformed email address.
	ErrInvalidEmail = models.NewAppError(models.KindUnprocessable, "invalid_email")

	// ErrInvalidPassword rejects a signup password outside the length
	// bounds.
	ErrInvalidPassword = models.NewAppError(models.KindUnprocessable, "invalid_password")

	// ErrInvalidNewPassword rejects a bad replacement password on the
	// reset and change flows. Same code as ErrInvalidPassword, but those
	// flows answer 400 where signup answers 422.
	ErrInvalidNewPassword = models.NewAppError(models.KindBadRequest, "invalid_password")

	// ErrAlreadyVerified rejects re-verification of a verified account.
	ErrAlreadyVerified = models.NewAppError(models.KindBadRequest, "user_status_already_verified")

	// ErrUpdatePasswordFailed reports a failed password+marker rewrite.
	ErrUpdatePasswordFailed = models.NewAppError(models.KindBadRequest, "updated_user_password_failed")

	// ErrSendEmailFailed reports a failed outbound mail delivery on the
	// synchronous mail paths.
	ErrSendEmailFailed = models.NewAppError(models.KindBadRequest, "send_email_failed")
)
