// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/validation"
)

// asyncMailTimeout bounds the background verification-email send that
// follows signup.
const asyncMailTimeout = 30 * time.Second

// TokenIssuer is the slice of the token service the account service
// needs: issuing mail-flow tokens and deriving session markers.
type TokenIssuer interface {
	GenerateResetPasswordToken(ctx context.Context, acct *models.Account) (string, error)
	GenerateVerifyAccountToken(ctx context.Context, acct *models.Account) (string, error)
	NewSessionMarker(passwordHash string) string
}

// MailSender delivers the account lifecycle emails.
type MailSender interface {
	SendVerifyAccountEmail(ctx context.Context, acct *models.Account, token string) error
	SendResetPasswordEmail(ctx context.Context, acct *models.Account, token string) error
}

// Service implements the account credential lifecycle on top of the
// store, hasher, token service and mailer.
type Service struct {
	store  Store
	hasher auth.PasswordHasher
	tokens TokenIssuer
	mail   MailSender

	// spawn runs the post-signup email send. Tests replace it with a
	// synchronous call.
	spawn func(fn func())
}

// NewService wires the account service.
func NewService(store Store, hasher auth.PasswordHasher, tokens TokenIssuer, mail MailSender) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		mail:   mail,
		spawn:  func(fn func()) { go fn() },
	}
}

// CreateUserParams carries signup input.
type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// CreateUser registers a new account.
//
// Validation failures return invalid_email or invalid_password, and a
// duplicate email returns user_existed. On success the account is
// persisted with role user and an unverified email, and the
// verification email is sent in the background: signup success is
// decoupled from mail deliverability, so a failed send is logged and
// otherwise dropped.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (*models.Account, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if !validation.IsEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !models.ValidPassword(params.Password) {
		return nil, ErrInvalidPassword
	}

	hashStart := time.Now()
	hash, err := s.hasher.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	auth.PasswordHashDuration.Observe(time.Since(hashStart).Seconds())

	now := time.Now().UTC()
	acct := &models.Account{
		ID:            uuid.NewString(),
		Email:         email,
		Password:      hash,
		Role:          models.RoleUser,
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Status:        models.AccountStatusActive,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, acct); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("user_id", acct.ID).Msg("account created")

	// Fire and forget: signup already succeeded.
	s.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncMailTimeout)
		defer cancel()
		if err := s.sendVerifyAccountEmail(ctx, acct); err != nil {
			logging.Error().Err(err).Str("user_id", acct.ID).Msg("post-signup verification email failed")
		}
	})

	return acct, nil
}

// VerifyCredentials checks a login attempt. Unknown email and wrong
// password both return the one generic invalid_credentials error so the
// response does not reveal which accounts exist.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*models.Account, error) {
	acct, err := s.store.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		auth.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.ComparePassword(password, acct.Password) {
		auth.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	auth.LoginAttempts.WithLabelValues("success").Inc()
	return acct, nil
}

// SendResetPasswordLink issues a short-lived reset token for the
// account behind the email and mails it out. Issuing the token flushes
// the current session marker, so starting a reset ends every active
// session.
func (s *Service) SendResetPasswordLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validation.IsEmail(email) {
		return ErrInvalidEmail
	}

	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.GenerateResetPasswordToken(ctx, acct)
	if err != nil {
		return err
	}

	if err := s.mail.SendResetPasswordEmail(ctx, acct, token); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", acct.ID).Msg("reset password email failed")
		return ErrSendEmailFailed
	}
	return nil
}

// ResetUserPassword completes a password reset for the account the
// verified reset principal identifies. The new password hash and a
// fresh session marker land in one store write, which atomically
// invalidates every token issued before the reset.
func (s *Service) ResetUserPassword(ctx context.Context, principal *auth.Principal, newPassword string) error {
	if !models.ValidPassword(newPassword) {
		return ErrInvalidNewPassword
	}

	acct, err := s.store.FindByID(ctx, principal.ID)
	if err != nil {
		return err
	}

	return s.rewritePassword(ctx, acct, newPassword)
}

// ChangeUserPassword is the authenticated password change: the old
// password must match before the new one is accepted, then the same
// atomic password+marker rewrite as reset applies.
func (s *Service) ChangeUserPassword(ctx context.Context, principalID, oldPassword, newPassword string) error {
	acct, err := s.store.FindByID(ctx, principalID)
	if err != nil {
		return err
	}

	if !s.hasher.ComparePassword(oldPassword, acct.Password) {
		return ErrInvalidCredentials
	}
	if !models.ValidPassword(newPassword) {
		return ErrInvalidNewPassword
	}

	return s.rewritePassword(ctx, acct, newPassword)
}

// rewritePassword replaces the password hash and session marker in a
// single store update.
func (s *Service) rewritePassword(ctx context.Context, acct *models.Account, newPassword string) error {
	hashStart := time.Now()
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	auth.PasswordHashDuration.Observe(time.Since(hashStart).Seconds())

	acct.Password = hash
	acct.AuthPayloadHash = s.tokens.NewSessionMarker(hash)
	acct.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, acct); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", acct.ID).Msg("password rewrite failed")
		return ErrUpdatePasswordFailed
	}

	logging.Ctx(ctx).Info().Str("user_id", acct.ID).Msg("password updated, sessions invalidated")
	return nil
}

// VerifyUser marks the principal's email address as verified.
func (s *Service) VerifyUser(ctx context.Context, principalID string) (*models.Account, error) {
	acct, err := s.store.FindByID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if acct.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	acct.EmailVerified = true
	acct.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// SendVerifyAccountEmail re-sends the verification email to an
// authenticated account, for users whose original mail went missing.
func (s *Service) SendVerifyAccountEmail(ctx context.Context, principalID string) error {
	acct, err := s.store.FindByID(ctx, principalID)
	if err != nil {
		return err
	}
	if acct.EmailVerified {
		return ErrAlreadyVerified
	}

	if err := s.sendVerifyAccountEmail(ctx, acct); err != nil {
		return ErrSendEmailFailed
	}
	return nil
}

func (s *Service) sendVerifyAccountEmail(ctx context.Context, acct *models.Account) error {
	token, err := s.tokens.GenerateVerifyAccountToken(ctx, acct)
	if err != nil {
		return err
	}
	return s.mail.SendVerifyAccountEmail(ctx, acct, token)
}

// GetAccount resolves a single account by ID.
func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.store.FindByID(ctx, id)
}

// ListAccounts returns all accounts ordered by creation time.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return s.store.List(ctx)
}

// CountAccounts returns the number of registered accounts.
func (s *Service) CountAccounts(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}
