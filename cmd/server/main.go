// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

// Package main is the entry point for the Taskforge server.
//
// Startup order:
//
//  1. Configuration: layered defaults, optional YAML file, environment
//     variables (Koanf v2)
//  2. Logging: zerolog, configured from the logging section
//  3. Storage: embedded BadgerDB account store (in-memory when DB_PATH
//     is unset)
//  4. Services: password hasher, token service, mailer, account service
//  5. Bootstrap: root admin account from SYSTEM_EMAIL and
//     SYSTEM_INIT_PASSWORD
//  6. HTTP server: Chi route tree with graceful shutdown on SIGINT and
//     SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/taskforge/taskforge/internal/account"
	"github.com/taskforge/taskforge/internal/api"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/authz"
	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/logging"
	"github.com/taskforge/taskforge/internal/mail"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("Starting Taskforge")

	db, err := openDatabase(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open account store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing account store")
		}
	}()

	store := account.NewBadgerStore(db)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	tokens, err := auth.NewTokenService(&cfg.Auth, store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token service")
	}

	mailer, err := mail.NewService(mail.NewSMTPSender(cfg.SMTP), cfg.Auth.FrontendBaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize mail service")
	}

	accounts := account.NewService(store, hasher, tokens, mailer)

	if err := account.EnsureRootAdmin(context.Background(), store, hasher, &cfg.Auth); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap root admin account")
	}

	handler := api.NewHandler(accounts, tokens)
	authMW := auth.NewMiddleware(tokens)
	authzMW := authz.NewMiddleware(authz.NewEngine(store))
	router := api.NewRouter(handler, authMW, authzMW, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		logging.Error().Err(err).Msg("HTTP server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Server stopped")
}

// openDatabase opens BadgerDB at the configured path, or in-memory when
// no path is set.
func openDatabase(cfg *config.DatabaseConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
		logging.Warn().Msg("DB_PATH not set, account store is in-memory and will not survive restarts")
	}
	return badger.Open(opts)
}
