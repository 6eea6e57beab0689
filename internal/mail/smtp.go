// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package mail delivers account lifecycle emails over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/taskforge/taskforge/internal/config"
)

const defaultSMTPTimeout = 30 * time.Second

// Sender is the low-level outbound mail transport.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender implements Sender against a plain SMTP server, with
// optional STARTTLS and PLAIN authentication.
type SMTPSender struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

// NewSMTPSender creates an SMTP-backed sender from configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	return &SMTPSender{cfg: cfg, timeout: timeout}
}

// Send delivers a single HTML email.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := s.buildMessage(to, subject, htmlBody)
	return s.sendSMTP(ctx, to, msg)
}

// buildMessage constructs the RFC 5322 message with headers.
func (s *SMTPSender) buildMessage(to, subject, htmlBody string) string {
	fromName := s.cfg.FromName
	if fromName == "" {
		fromName = "Taskforge"
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, s.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")
	return msg.String()
}

func (s *SMTPSender) sendSMTP(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if s.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.cfg.User != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
