// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lebensschule/journal-edge/internal/middleware"
)

// Stream rate limit: a reconnecting browser opens a handful of sockets per
// minute, never hundreds.
const (
	streamRateLimitRequests = 30
	streamRateLimitWindow   = time.Minute
	healthRateLimitRequests = 1000
)

// RouterDeps holds everything the router dispatches to.
type RouterDeps struct {
	// Gate decides whether page requests need a session. Nil disables it.
	Gate interface {
		Middleware(next http.Handler) http.Handler
	}

	// Proxy relays /api/* to the backend.
	Proxy http.Handler

	// Stream serves the analysis WebSocket for one entry.
	Stream http.Handler

	Health *HealthHandler

	Middleware *ChiMiddlewareConfig

	// StaticDir holds the compiled UI. Empty answers unknown paths with a
	// 404 envelope.
	StaticDir string
}

// Router wires the edge endpoints.
type Router struct {
	deps          RouterDeps
	chiMiddleware *ChiMiddleware
	static        http.Handler
}

// NewRouter creates a router from its dependencies.
func NewRouter(deps RouterDeps) *Router {
	router := &Router{
		deps:          deps,
		chiMiddleware: NewChiMiddleware(deps.Middleware),
	}
	if deps.StaticDir != "" {
		router.static = chimiddleware.Compress(5)(newStaticHandler(deps.StaticDir))
	}
	return router
}

// Handler builds the chi route tree.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // before the gate so preflights are answered
	if router.deps.Gate != nil {
		r.Use(router.deps.Gate.Middleware)
	}

	// ========================
	// Health and Metrics
	// ========================
	if router.deps.Health != nil {
		r.Route("/healthz", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(healthRateLimitRequests, time.Minute))
			r.Use(APISecurityHeaders())
			r.Get("/live", router.deps.Health.Live)
			r.Get("/ready", router.deps.Health.Ready)
		})
	}
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Backend API (relayed)
	// ========================
	if router.deps.Proxy != nil {
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.PrometheusMetrics)
			r.Handle("/api", router.deps.Proxy)
			r.Handle("/api/*", router.deps.Proxy)
		})
	}

	// ========================
	// Analysis Stream
	// ========================
	if router.deps.Stream != nil {
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(streamRateLimitRequests, streamRateLimitWindow))
			r.Use(middleware.PrometheusMetrics)
			r.Get("/ws/journal/{id}/analysis", router.deps.Stream.ServeHTTP)
		})
	}

	r.NotFound(router.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).MethodNotAllowed()
	})

	return r
}

func (router *Router) notFound(w http.ResponseWriter, r *http.Request) {
	if router.static != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		router.static.ServeHTTP(w, r)
		return
	}
	WriteNotFound(w, r, "Resource not found")
}
