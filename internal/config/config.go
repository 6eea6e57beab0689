// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package config provides centralized configuration management for all
// application components.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
// Business logic never reads the environment directly; every setting is
// carried explicitly in this struct and injected at construction time.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// AuthConfig holds token, password-hashing and bootstrap settings.
type AuthConfig struct {
	// JWTSecret signs and verifies all issued tokens. Required,
	// minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// LoginTokenTTL is the lifetime of login-scoped tokens.
	LoginTokenTTL time.Duration `koanf:"login_token_ttl"`

	// ResetTokenTTL is the lifetime of reset-password-scoped tokens.
	ResetTokenTTL time.Duration `koanf:"reset_token_ttl"`

	// VerifyTokenTTL is the lifetime of verify-account-scoped tokens.
	VerifyTokenTTL time.Duration `koanf:"verify_token_ttl"`

	// BcryptCost is the work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`

	// SystemEmail and SystemInitPassword seed the root admin account at
	// startup. Bootstrap is skipped when the password is empty.
	SystemEmail        string `koanf:"system_email"`
	SystemInitPassword string `koanf:"system_init_password"`

	// FrontendBaseURL is the base for reset/verify deep links in emails.
	FrontendBaseURL string `koanf:"frontend_base_url"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	User     string        `koanf:"user"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	FromName string        `koanf:"from_name"`
	UseTLS   bool          `koanf:"use_tls"`
	Timeout  time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds the embedded account store settings.
type DatabaseConfig struct {
	// Path is the BadgerDB data directory. Empty means in-memory
	// (useful for tests and local development).
	Path string `koanf:"path"`
}

// SecurityConfig holds transport-level protections.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// minJWTSecretLength is the minimum accepted signing secret length.
const minJWTSecretLength = 32

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters, got %d",
			minJWTSecretLength, len(c.Auth.JWTSecret))
	}

	if c.Auth.LoginTokenTTL <= 0 {
		return fmt.Errorf("auth.login_token_ttl must be positive")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return fmt.Errorf("auth.reset_token_ttl must be positive")
	}
	if c.Auth.VerifyTokenTTL <= 0 {
		return fmt.Errorf("auth.verify_token_ttl must be positive")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("security.rate_limit_reqs must be positive")
	}

	return nil
}
