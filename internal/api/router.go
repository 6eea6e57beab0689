// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/authz"
	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/middleware"
	"github.com/taskforge/taskforge/internal/models"
)

// Login attempts share a tighter limit than the rest of the API to slow
// bcrypt-bound brute forcing.
const (
	loginRateLimit       = 10
	loginRateLimitWindow = 5 * time.Minute
)

// Route policies. Authenticated routes name concrete roles; the mail
// token flows run unauthenticated because their proof is the emailed
// token itself.
var (
	policyAnyAccount = authz.Metadata{
		Resource:     "accounts.self",
		AllowedRoles: []string{models.RoleUser, models.RoleRootAdmin},
	}
	policyRootAdmin = authz.Metadata{
		Resource:     "accounts.admin",
		AllowedRoles: []string{models.RoleRootAdmin},
	}
	policyResetFlow = authz.Metadata{
		Resource:     "accounts.reset",
		AllowedRoles: []string{authz.Everyone},
	}
)

// Router assembles the HTTP handler tree.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	authzMW *authz.Middleware
	cfg     *config.Config
}

// NewRouter wires the router from its collaborators.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler: handler,
		authMW:  authMW,
		authzMW: authzMW,
		cfg:     cfg,
	}
}

// chiMiddleware adapts http.HandlerFunc-wrapping middleware to Chi's
// func(http.Handler) http.Handler shape.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup builds the complete route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.corsHandler())
	r.Use(chiMiddleware(middleware.Compression))

	r.Get("/api/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/accounts", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		// Credential endpoints: unauthenticated, strict login limit.
		r.With(router.loginRateLimit()).Post("/login", router.handler.Login)
		r.Post("/signup", router.handler.Signup)

		// Mail token flows: open routes, the emailed token is the proof.
		r.Post("/send-email-reset-password",
			router.authzMW.Guard(policyResetFlow, router.handler.SendResetPasswordEmail))
		r.Post("/reset-password",
			router.authzMW.Guard(policyResetFlow, router.handler.ResetPassword))

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.authMW.Authenticate))

			r.Post("/tokens/refresh",
				router.authzMW.Guard(policyAnyAccount, router.handler.RefreshToken))
			r.Post("/change-password",
				router.authzMW.Guard(policyAnyAccount, router.handler.ChangePassword))
			r.Post("/verify",
				router.authzMW.Guard(policyAnyAccount, router.handler.Verify))
			r.Post("/send-email-verify",
				router.authzMW.Guard(policyAnyAccount, router.handler.SendVerifyEmail))
			r.Get("/me",
				router.authzMW.Guard(policyAnyAccount, router.handler.Me))

			r.Get("/",
				router.authzMW.Guard(policyRootAdmin, router.handler.ListAccounts))
			r.Get("/count",
				router.authzMW.Guard(policyRootAdmin, router.handler.CountAccounts))
		})
	})

	return r
}

func (router *Router) corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		router.cfg.Security.RateLimitReqs,
		router.cfg.Security.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

func (router *Router) loginRateLimit() func(http.Handler) http.Handler {
	if router.cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		loginRateLimit,
		loginRateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}
