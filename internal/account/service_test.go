// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/models"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	mu        sync.Mutex
	byID      map[string]*models.Account
	byEmail   map[string]string
	createErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

func (s *memStore) Create(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byEmail[acct.Email]; ok {
		return ErrUserExisted
	}
	clone := *acct
	s.byID[acct.ID] = &clone
	s.byEmail[acct.Email] = acct.ID
	return nil
}

func (s *memStore) Update(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	prev, ok := s.byID[acct.ID]
	if !ok {
		return models.ErrAccountNotFound
	}
	if prev.Email != acct.Email {
		delete(s.byEmail, prev.Email)
		s.byEmail[acct.Email] = acct.ID
	}
	clone := *acct
	s.byID[acct.ID] = &clone
	return nil
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.byID[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	clone := *acct
	return &clone, nil
}

func (s *memStore) SaveAuthPayloadHash(_ context.Context, id, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.byID[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	acct.AuthPayloadHash = marker
	return nil
}

func (s *memStore) List(_ context.Context) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Account, 0, len(s.byID))
	for _, acct := range s.byID {
		clone := *acct
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

// fakeMailer records sent emails.
type fakeMailer struct {
	mu         sync.Mutex
	verifySent []string
	resetSent  []string
	err        error
}

func (m *fakeMailer) SendVerifyAccountEmail(_ context.Context, acct *models.Account, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.verifySent = append(m.verifySent, acct.Email+":"+token)
	return nil
}

func (m *fakeMailer) SendResetPasswordEmail(_ context.Context, acct *models.Account, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resetSent = append(m.resetSent, acct.Email+":"+token)
	return nil
}

// fakeTokenIssuer issues predictable tokens and markers.
type fakeTokenIssuer struct {
	markerSeq int
	issueErr  error
}

func (f *fakeTokenIssuer) GenerateResetPasswordToken(_ context.Context, acct *models.Account) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return "reset-token-" + acct.ID, nil
}

func (f *fakeTokenIssuer) GenerateVerifyAccountToken(_ context.Context, acct *models.Account) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return "verify-token-" + acct.ID, nil
}

func (f *fakeTokenIssuer) NewSessionMarker(passwordHash string) string {
	f.markerSeq++
	return fmt.Sprintf("%s - %d", passwordHash, f.markerSeq)
}

type serviceFixture struct {
	svc    *Service
	store  *memStore
	mailer *fakeMailer
	tokens *fakeTokenIssuer
}

func newServiceFixture() *serviceFixture {
	store := newMemStore()
	mailer := &fakeMailer{}
	tokens := &fakeTokenIssuer{}
	svc := NewService(store, auth.NewBcryptHasher(bcrypt.MinCost), tokens, mailer)
	// Run the post-signup send inline so tests can assert on it.
	svc.spawn = func(fn func()) { fn() }
	return &serviceFixture{svc: svc, store: store, mailer: mailer, tokens: tokens}
}

func signup(t *testing.T, f *serviceFixture, email, password string) *models.Account {
	t.Helper()
	acct, err := f.svc.CreateUser(context.Background(), CreateUserParams{
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	return acct
}

func TestCreateUser(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")

	if acct.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", acct.Role, models.RoleUser)
	}
	if acct.EmailVerified {
		t.Error("new accounts must start unverified")
	}
	if acct.Status != models.AccountStatusActive {
		t.Errorf("status = %q, want %q", acct.Status, models.AccountStatusActive)
	}
	if acct.Password == "secret1" {
		t.Error("stored password must be hashed")
	}
	if acct.ID == "" {
		t.Error("expected a generated ID")
	}

	if len(f.mailer.verifySent) != 1 {
		t.Fatalf("expected 1 verification email, got %d", len(f.mailer.verifySent))
	}
	if want := "a@b.com:verify-token-" + acct.ID; f.mailer.verifySent[0] != want {
		t.Errorf("verification email = %q, want %q", f.mailer.verifySent[0], want)
	}
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "malformed email", email: "not-an-email", password: "secret1", wantErr: ErrInvalidEmail},
		{name: "empty email", email: "", password: "secret1", wantErr: ErrInvalidEmail},
		{name: "password too short", email: "a@b.com", password: "ab", wantErr: ErrInvalidPassword},
		{name: "password too long", email: "a@b.com", password: strings.Repeat("x", 25), wantErr: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			_, err := f.svc.CreateUser(context.Background(), CreateUserParams{
				Email:    tt.email,
				Password: tt.password,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if len(f.mailer.verifySent) != 0 {
				t.Error("rejected signup must not send mail")
			}
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newServiceFixture()
	signup(t, f, "a@b.com", "secret1")

	_, err := f.svc.CreateUser(context.Background(), CreateUserParams{
		Email:    "A@B.com", // email comparison is case-insensitive
		Password: "secret2",
	})
	if !errors.Is(err, ErrUserExisted) {
		t.Errorf("got %v, want ErrUserExisted", err)
	}
}

func TestCreateUserMailFailureDoesNotFailSignup(t *testing.T) {
	f := newServiceFixture()
	f.mailer.err = errors.New("smtp down")

	acct, err := f.svc.CreateUser(context.Background(), CreateUserParams{
		Email:    "a@b.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("signup must succeed despite mail failure, got %v", err)
	}
	if _, err := f.store.FindByID(context.Background(), acct.ID); err != nil {
		t.Errorf("account should be persisted: %v", err)
	}
}

func TestVerifyCredentials(t *testing.T) {
	f := newServiceFixture()
	created := signup(t, f, "a@b.com", "secret1")

	acct, err := f.svc.VerifyCredentials(context.Background(), "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("VerifyCredentials returned error: %v", err)
	}
	if acct.ID != created.ID {
		t.Errorf("resolved wrong account: %q", acct.ID)
	}
}

func TestVerifyCredentialsGenericFailure(t *testing.T) {
	f := newServiceFixture()
	signup(t, f, "a@b.com", "secret1")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "a@b.com", password: "wrongpass"},
		{name: "unknown email", email: "nobody@b.com", password: "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.VerifyCredentials(context.Background(), tt.email, tt.password)
			// Both failure modes must share one code.
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestSendResetPasswordLink(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")

	if err := f.svc.SendResetPasswordLink(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("SendResetPasswordLink returned error: %v", err)
	}
	if len(f.mailer.resetSent) != 1 {
		t.Fatalf("expected 1 reset email, got %d", len(f.mailer.resetSent))
	}
	if want := "a@b.com:reset-token-" + acct.ID; f.mailer.resetSent[0] != want {
		t.Errorf("reset email = %q, want %q", f.mailer.resetSent[0], want)
	}
}

func TestSendResetPasswordLinkFailures(t *testing.T) {
	f := newServiceFixture()
	signup(t, f, "a@b.com", "secret1")

	if err := f.svc.SendResetPasswordLink(context.Background(), "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("malformed email: got %v, want ErrInvalidEmail", err)
	}
	if err := f.svc.SendResetPasswordLink(context.Background(), "nobody@b.com"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("unknown email: got %v, want ErrAccountNotFound", err)
	}

	f.mailer.err = errors.New("smtp down")
	err := f.svc.SendResetPasswordLink(context.Background(), "a@b.com")
	if !errors.Is(err, ErrSendEmailFailed) {
		t.Errorf("mail failure: got %v, want ErrSendEmailFailed", err)
	}
	if appErr, ok := models.AsAppError(err); !ok || appErr.Kind != models.KindBadRequest {
		t.Errorf("mail failure kind = %v, want KindBadRequest", err)
	}
}

func TestResetUserPassword(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")
	markerBefore := f.store.byID[acct.ID].AuthPayloadHash

	err := f.svc.ResetUserPassword(context.Background(), &auth.Principal{ID: acct.ID}, "newsecret")
	if err != nil {
		t.Fatalf("ResetUserPassword returned error: %v", err)
	}

	stored, err := f.store.FindByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if stored.AuthPayloadHash == markerBefore {
		t.Error("reset must rotate the session marker")
	}
	if !strings.HasPrefix(stored.AuthPayloadHash, stored.Password+" - ") {
		t.Error("marker must be derived from the new password hash")
	}

	if _, err := f.svc.VerifyCredentials(context.Background(), "a@b.com", "newsecret"); err != nil {
		t.Errorf("new password should log in: %v", err)
	}
	if _, err := f.svc.VerifyCredentials(context.Background(), "a@b.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password should be rejected, got %v", err)
	}
}

func TestResetUserPasswordValidation(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")

	err := f.svc.ResetUserPassword(context.Background(), &auth.Principal{ID: acct.ID}, "ab")
	if !errors.Is(err, ErrInvalidNewPassword) {
		t.Errorf("got %v, want ErrInvalidNewPassword", err)
	}
	if appErr, ok := models.AsAppError(err); !ok || appErr.Kind != models.KindBadRequest {
		t.Errorf("weak new password kind = %v, want KindBadRequest", err)
	}

	err = f.svc.ResetUserPassword(context.Background(), &auth.Principal{ID: "ghost"}, "newsecret")
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Errorf("got %v, want ErrAccountNotFound", err)
	}
}

func TestResetUserPasswordUpdateFailure(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")
	f.store.updateErr = errors.New("disk full")

	err := f.svc.ResetUserPassword(context.Background(), &auth.Principal{ID: acct.ID}, "newsecret")
	if !errors.Is(err, ErrUpdatePasswordFailed) {
		t.Errorf("got %v, want ErrUpdatePasswordFailed", err)
	}
	if appErr, ok := models.AsAppError(err); !ok || appErr.Kind != models.KindBadRequest {
		t.Errorf("rewrite failure kind = %v, want KindBadRequest", err)
	}
}

func TestChangeUserPassword(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")

	if err := f.svc.ChangeUserPassword(context.Background(), acct.ID, "secret1", "newsecret"); err != nil {
		t.Fatalf("ChangeUserPassword returned error: %v", err)
	}
	if _, err := f.svc.VerifyCredentials(context.Background(), "a@b.com", "newsecret"); err != nil {
		t.Errorf("new password should log in: %v", err)
	}
}

func TestChangeUserPasswordFailures(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")

	tests := []struct {
		name        string
		id          string
		oldPassword string
		newPassword string
		wantErr     error
	}{
		{name: "wrong old password", id: acct.ID, oldPassword: "wrongpass", newPassword: "newsecret", wantErr: ErrInvalidCredentials},
		{name: "invalid new password", id: acct.ID, oldPassword: "secret1", newPassword: "ab", wantErr: ErrInvalidNewPassword},
		{name: "unknown account", id: "ghost", oldPassword: "secret1", newPassword: "newsecret", wantErr: models.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ChangeUserPassword(context.Background(), tt.id, tt.oldPassword, tt.newPassword)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyUser(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")

	verified, err := f.svc.VerifyUser(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("VerifyUser returned error: %v", err)
	}
	if !verified.EmailVerified {
		t.Error("account should be marked verified")
	}

	if _, err := f.svc.VerifyUser(context.Background(), acct.ID); !errors.Is(err, ErrAlreadyVerified) {
		t.Errorf("second verification: got %v, want ErrAlreadyVerified", err)
	}
}

func TestSendVerifyAccountEmail(t *testing.T) {
	f := newServiceFixture()
	acct := signup(t, f, "a@b.com", "secret1")
	sentAtSignup := len(f.mailer.verifySent)

	if err := f.svc.SendVerifyAccountEmail(context.Background(), acct.ID); err != nil {
		t.Fatalf("SendVerifyAccountEmail returned error: %v", err)
	}
	if len(f.mailer.verifySent) != sentAtSignup+1 {
		t.Errorf("expected one more verification email")
	}

	if _, err := f.svc.VerifyUser(context.Background(), acct.ID); err != nil {
		t.Fatalf("VerifyUser returned error: %v", err)
	}
	if err := f.svc.SendVerifyAccountEmail(context.Background(), acct.ID); !errors.Is(err, ErrAlreadyVerified) {
		t.Errorf("verified account: got %v, want ErrAlreadyVerified", err)
	}
}

func TestEnsureRootAdmin(t *testing.T) {
	store := newMemStore()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	cfg := &config.AuthConfig{
		SystemEmail:        "root@taskforge.local",
		SystemInitPassword: "bootstrap-secret",
	}

	if err := EnsureRootAdmin(context.Background(), store, hasher, cfg); err != nil {
		t.Fatalf("EnsureRootAdmin returned error: %v", err)
	}

	acct, err := store.FindByEmail(context.Background(), cfg.SystemEmail)
	if err != nil {
		t.Fatalf("root admin should exist: %v", err)
	}
	if acct.Role != models.RoleRootAdmin {
		t.Errorf("role = %q, want %q", acct.Role, models.RoleRootAdmin)
	}
	if !acct.EmailVerified {
		t.Error("root admin should be pre-verified")
	}
	if !hasher.ComparePassword("bootstrap-secret", acct.Password) {
		t.Error("root admin password should match the init password")
	}

	// Second run is a no-op.
	firstID := acct.ID
	if err := EnsureRootAdmin(context.Background(), store, hasher, cfg); err != nil {
		t.Fatalf("second EnsureRootAdmin returned error: %v", err)
	}
	again, _ := store.FindByEmail(context.Background(), cfg.SystemEmail)
	if again.ID != firstID {
		t.Error("bootstrap must be idempotent")
	}
}

func TestEnsureRootAdminSkippedWithoutPassword(t *testing.T) {
	store := newMemStore()
	cfg := &config.AuthConfig{SystemEmail: "root@taskforge.local"}

	if err := EnsureRootAdmin(context.Background(), store, auth.NewBcryptHasher(bcrypt.MinCost), cfg); err != nil {
		t.Fatalf("EnsureRootAdmin returned error: %v", err)
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("no account should be created, got %d", n)
	}
}

// Ensure timestamps are set on creation; a regression here breaks List
// ordering downstream.
func TestCreateUserSetsTimestamps(t *testing.T) {
	f := newServiceFixture()
	before := time.Now().Add(-time.Second)
	acct := signup(t, f, "a@b.com", "secret1")

	if acct.CreatedAt.Before(before) || acct.UpdatedAt.Before(before) {
		t.Errorf("timestamps not set: created=%v updated=%v", acct.CreatedAt, acct.UpdatedAt)
	}
}
