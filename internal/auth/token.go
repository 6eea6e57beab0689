// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

// TokenScope identifies what an issued token may be used for.
type TokenScope string

const (
	ScopeLogin         TokenScope = "Token::Login"
	ScopeResetPassword TokenScope = "Token::ResetPassword"
	ScopeVerifyAccount TokenScope = "Token::VerifyAccount"
)

// Token service errors.
var (
	// ErrInvalidToken covers empty, malformed, expired, tampered and
	// stale-marker tokens. Callers cannot distinguish which applies.
	ErrInvalidToken = models.NewAppError(models.KindUnauthorized, "invalid_token")

	// ErrMissingPrincipal is returned when token generation is requested
	// without a resolved principal.
	ErrMissingPrincipal = models.NewAppError(models.KindUnauthorized, "unknown")
)

// AccountStore is the subset of the account store the token service
// needs: resolving accounts and persisting the rotated session marker.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	SaveAuthPayloadHash(ctx context.Context, id, marker string) error
}

// Claims is the signed token payload. AuthPayloadHash is a copy of the
// account's session marker at issuance time; verification compares it
// against the account's current marker, which is what lets a single
// field write invalidate every outstanding token.
type Claims struct {
	UserID          string `json:"userId"`
	Scope           string `json:"scope"`
	Email           string `json:"email"`
	AuthPayloadHash string `json:"authPayloadHash"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies scoped JWTs tied to a rotating
// per-account session marker.
//
// The marker (Account.AuthPayloadHash) is the session generation value:
// it is derived from the current password hash plus the issuance
// timestamp, rotated on explicit refresh, password change and reset
// completion, and reused on plain logins so a default login does not
// terminate other active sessions. There is no revocation list; marker
// comparison during verification is the sole invalidation mechanism.
type TokenService struct {
	secret []byte
	store  AccountStore
	ttls   map[TokenScope]time.Duration

	// now is a clock hook for tests.
	now func() time.Time
}

// NewTokenService creates the token service from auth configuration.
// Returns an error if the signing secret is empty.
func NewTokenService(cfg *config.AuthConfig, store AccountStore) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		store:  store,
		ttls: map[TokenScope]time.Duration{
			ScopeLogin:         cfg.LoginTokenTTL,
			ScopeResetPassword: cfg.ResetTokenTTL,
			ScopeVerifyAccount: cfg.VerifyTokenTTL,
		},
		now: time.Now,
	}, nil
}

// NewSessionMarker derives a fresh session marker from a password hash.
// Binding the marker to both the password hash and the issuance time
// keeps it unique across password-hash collisions and issuance races.
func (s *TokenService) NewSessionMarker(passwordHash string) string {
	return fmt.Sprintf("%s - %d", passwordHash, s.now().UnixMilli())
}

// createToken signs a token for the account in the given scope.
//
// When the account has no session marker yet, or flushOldSession is set,
// a fresh marker is computed and persisted, which invalidates every
// previously issued token for the account. Otherwise the existing marker
// is embedded unchanged so other active sessions keep working.
func (s *TokenService) createToken(ctx context.Context, acct *models.Account, scope TokenScope, flushOldSession bool) (string, error) {
	marker := acct.AuthPayloadHash
	rotate := marker == "" || flushOldSession
	if rotate {
		marker = s.NewSessionMarker(acct.Password)
	}

	ttl, ok := s.ttls[scope]
	if !ok {
		// Unrecognized scope falls back to the login lifetime.
		ttl = s.ttls[ScopeLogin]
	}

	issuedAt := s.now()
	claims := &Claims{
		UserID:          acct.ID,
		Scope:           string(scope),
		Email:           acct.Email,
		AuthPayloadHash: marker,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if rotate {
		if err := s.store.SaveAuthPayloadHash(ctx, acct.ID, marker); err != nil {
			return "", fmt.Errorf("failed to persist session marker: %w", err)
		}
		acct.AuthPayloadHash = marker
	}

	TokensIssued.WithLabelValues(string(scope)).Inc()
	return token, nil
}

// GenerateToken is the default login path: it issues a login-scoped
// token without flushing the existing session marker, so two sequential
// logins leave both tokens valid.
func (s *TokenService) GenerateToken(ctx context.Context, principal *Principal) (string, error) {
	if principal == nil {
		logging.Ctx(ctx).Error().Msg("token generation requested without principal")
		return "", ErrMissingPrincipal
	}

	acct, err := s.store.FindByID(ctx, principal.ID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", principal.ID).Msg("account lookup failed during token generation")
		return "", ErrMissingPrincipal
	}

	return s.createToken(ctx, acct, ScopeLogin, false)
}

// RefreshToken issues a fresh login-scoped token and rotates the session
// marker, invalidating every previously issued token for the account.
func (s *TokenService) RefreshToken(ctx context.Context, principal *Principal) (string, error) {
	if principal == nil {
		return "", ErrMissingPrincipal
	}

	acct, err := s.store.FindByID(ctx, principal.ID)
	if err != nil {
		return "", err
	}

	return s.createToken(ctx, acct, ScopeLogin, true)
}

// GenerateResetPasswordToken issues a short-lived reset-scoped token.
// Rotation is forced so any prior session dies when a reset is started.
func (s *TokenService) GenerateResetPasswordToken(ctx context.Context, acct *models.Account) (string, error) {
	return s.createToken(ctx, acct, ScopeResetPassword, true)
}

// GenerateVerifyAccountToken issues a short-lived verify-scoped token.
func (s *TokenService) GenerateVerifyAccountToken(ctx context.Context, acct *models.Account) (string, error) {
	return s.createToken(ctx, acct, ScopeVerifyAccount, true)
}

// VerifyToken validates a token string and returns the principal it
// identifies.
//
// Verification steps:
//  1. Reject empty tokens.
//  2. Check signature, expiry and signing algorithm.
//  3. Resolve the account named in the payload.
//  4. Compare the account's current session marker against the marker
//     embedded in the payload by exact value equality. A mismatch means
//     the marker rotated after issuance (refresh, password change or
//     reset completed) and the token is dead.
func (s *TokenService) VerifyToken(ctx context.Context, tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("token parse failed")
		TokenVerifications.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		TokenVerifications.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidToken
	}

	acct, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, models.ErrAccountNotFound
		}
		logging.Ctx(ctx).Error().Err(err).Str("user_id", claims.UserID).Msg("account lookup failed during token verification")
		return nil, ErrInvalidToken
	}

	if acct.AuthPayloadHash != claims.AuthPayloadHash {
		TokenVerifications.WithLabelValues("stale_marker").Inc()
		return nil, ErrInvalidToken
	}

	TokenVerifications.WithLabelValues("success").Inc()
	return &Principal{ID: acct.ID, Email: acct.Email}, nil
}
