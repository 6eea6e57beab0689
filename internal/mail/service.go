// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	resetPasswordSubject = "Reset your Taskforge password"
	verifyAccountSubject = "Verify your Taskforge account"
)

// templateData feeds both email templates.
type templateData struct {
	FirstName string
	Link      string
}

// Service renders the account lifecycle emails and hands them to the
// transport. The token rides to the frontend as a query parameter; the
// frontend posts it back on the matching API endpoint.
type Service struct {
	sender      Sender
	frontendURL string
	templates   *template.Template
}

// NewService loads the embedded templates and wires the mail service.
func NewService(sender Sender, frontendBaseURL string) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing mail templates: %w", err)
	}
	return &Service{
		sender:      sender,
		frontendURL: strings.TrimRight(frontendBaseURL, "/"),
		templates:   tmpl,
	}, nil
}

// SendResetPasswordEmail mails the reset deep link to the account.
func (s *Service) SendResetPasswordEmail(ctx context.Context, acct *models.Account, token string) error {
	link := s.frontendLink("/reset-password", token)
	body, err := s.render("reset_password.html.tmpl", templateData{
		FirstName: acct.FirstName,
		Link:      link,
	})
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, acct.Email, resetPasswordSubject, body); err != nil {
		return fmt.Errorf("sending reset password email: %w", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", acct.ID).Msg("reset password email sent")
	return nil
}

// SendVerifyAccountEmail mails the verification deep link to the account.
func (s *Service) SendVerifyAccountEmail(ctx context.Context, acct *models.Account, token string) error {
	link := s.frontendLink("/verify-account", token)
	body, err := s.render("verify_account.html.tmpl", templateData{
		FirstName: acct.FirstName,
		Link:      link,
	})
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, acct.Email, verifyAccountSubject, body); err != nil {
		return fmt.Errorf("sending verify account email: %w", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", acct.ID).Msg("verify account email sent")
	return nil
}

func (s *Service) frontendLink(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
