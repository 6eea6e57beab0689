// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/taskforge/taskforge/internal/models"
)

// fakeVerifier accepts exactly one token value.
type fakeVerifier struct {
	accept    string
	principal *Principal
	err       error
}

func (f *fakeVerifier) VerifyToken(_ context.Context, token string) (*Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token == f.accept {
		return f.principal, nil
	}
	return nil, ErrInvalidToken
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		cookie    string
		wantToken string
		wantOK    bool
	}{
		{name: "bearer header", header: "Bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "lowercase bearer", header: "bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "cookie fallback", cookie: "cookietoken", wantToken: "cookietoken", wantOK: true},
		{name: "header wins over cookie", header: "Bearer fromheader", cookie: "fromcookie", wantToken: "fromheader", wantOK: true},
		{name: "malformed header ignores cookie", header: "Basic abc123", cookie: "fromcookie", wantOK: false},
		{name: "bearer without token", header: "Bearer", wantOK: false},
		{name: "bearer with empty token", header: "Bearer ", wantOK: false},
		{name: "nothing presented", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: JWTCookieName, Value: tt.cookie})
			}

			token, ok := ExtractToken(r)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	principal := &Principal{ID: "acct-1", Email: "dev@example.com"}
	mw := NewMiddleware(&fakeVerifier{accept: "good", principal: principal})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized, wantCode: "invalid_token"},
		{name: "invalid token", header: "Bearer bad", wantStatus: http.StatusUnauthorized, wantCode: "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Principal
			handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
				seen = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.ID != "acct-1" {
					t.Errorf("handler should see the verified principal, got %+v", seen)
				}
				return
			}

			var resp models.APIResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if resp.Status != "error" || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("unexpected error envelope: %+v", resp)
			}
		})
	}
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	mw := NewMiddleware(&fakeVerifier{err: models.ErrAccountNotFound})
	handler := mw.Authenticate(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "user_not_existed" {
		t.Errorf("unexpected error envelope: %+v", resp)
	}
}

func TestAuthenticateOptional(t *testing.T) {
	principal := &Principal{ID: "acct-1"}
	mw := NewMiddleware(&fakeVerifier{accept: "good", principal: principal})

	tests := []struct {
		name          string
		header        string
		wantStatus    int
		wantPrincipal bool
	}{
		{name: "no token continues anonymously", wantStatus: http.StatusOK, wantPrincipal: false},
		{name: "valid token attaches principal", header: "Bearer good", wantStatus: http.StatusOK, wantPrincipal: true},
		{name: "invalid token still rejected", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Principal
			handler := mw.AuthenticateOptional(func(w http.ResponseWriter, r *http.Request) {
				seen = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if tt.wantPrincipal && (seen == nil || seen.ID != "acct-1") {
				t.Errorf("expected principal in context, got %+v", seen)
			}
			if !tt.wantPrincipal && seen != nil {
				t.Errorf("expected anonymous request, got principal %+v", seen)
			}
		})
	}
}
