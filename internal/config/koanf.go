// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/taskforge/config.yaml",
	"/etc/taskforge/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3000,
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:          "",
			LoginTokenTTL:      365 * 24 * time.Hour, // login sessions last ~1 year
			ResetTokenTTL:      3 * time.Minute,
			VerifyTokenTTL:     3 * time.Minute,
			BcryptCost:         10,
			SystemEmail:        "admin@taskforge.local",
			SystemInitPassword: "",
			FrontendBaseURL:    "http://localhost:4200",
		},
		SMTP: SMTPConfig{
			Host:     "",
			Port:     587,
			User:     "",
			Password: "",
			From:     "no-reply@taskforge.local",
			FromName: "Taskforge",
			UseTLS:   true,
			Timeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "/data/taskforge",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when supplied via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - JWT_SECRET -> auth.jwt_secret
//   - TOKEN_EXPIRES_IN -> auth.login_token_ttl
//   - SMTP_HOST -> smtp.host
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":      "server.host",
		"http_port":      "server.port",
		"server_timeout": "server.timeout",

		// Auth / tokens
		"jwt_secret":              "auth.jwt_secret",
		"token_expires_in":        "auth.login_token_ttl",
		"reset_token_expires_in":  "auth.reset_token_ttl",
		"verify_token_expires_in": "auth.verify_token_ttl",
		"bcrypt_cost":             "auth.bcrypt_cost",
		"system_email":            "auth.system_email",
		"system_init_password":    "auth.system_init_password",
		"frontend_base_url":       "auth.frontend_base_url",

		// SMTP
		"smtp_host":      "smtp.host",
		"smtp_port":      "smtp.port",
		"smtp_user":      "smtp.user",
		"smtp_password":  "smtp.password",
		"smtp_from":      "smtp.from",
		"smtp_from_name": "smtp.from_name",
		"smtp_use_tls":   "smtp.use_tls",

		// Database
		"db_path": "database.path",

		// Security
		"rate_limit_reqs":     "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"rate_limit_disabled": "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unknown env vars are discarded so unrelated process environment
	// does not leak into the configuration tree.
	return ""
}
