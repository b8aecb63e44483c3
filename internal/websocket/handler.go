// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package websocket

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/lebensschule/journal-edge/internal/analysis"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
)

// maxEntryIDLength bounds the {id} path parameter.
const maxEntryIDLength = 128

// FetcherFor returns a fetcher that calls the backend with the given
// Cookie header.
type FetcherFor func(cookie string) analysis.Fetcher

// HandlerConfig configures the stream endpoint.
type HandlerConfig struct {
	// CookieName is the session cookie that must be present.
	CookieName string

	Analysis analysis.Config

	// AllowedOrigins lists extra origins allowed to connect. Same-origin
	// connections are always allowed. A "*" entry is ignored: the stream
	// authenticates by cookie alone, so only listed origins may connect.
	AllowedOrigins []string

	// WriteError writes errors for requests that are not upgraded.
	WriteError func(w http.ResponseWriter, r *http.Request, status int, code, message string)
}

// Handler serves GET /ws/journal/{id}/analysis.
type Handler struct {
	hub        *Hub
	fetcherFor FetcherFor
	cfg        HandlerConfig
	upgrader   websocket.Upgrader
}

// NewHandler creates the stream handler.
func NewHandler(hub *Hub, fetcherFor FetcherFor, cfg HandlerConfig) *Handler {
	if cfg.WriteError == nil {
		cfg.WriteError = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	h := &Handler{hub: hub, fetcherFor: fetcherFor, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed != "*" && strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the connection and starts streaming.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if entryID == "" || len(entryID) > maxEntryIDLength {
		h.cfg.WriteError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid entry id")
		return
	}

	if c, err := r.Cookie(h.cfg.CookieName); err != nil || c.Value == "" {
		h.cfg.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Session cookie required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The request context ends when ServeHTTP returns; keep its values only.
	ctx := logging.ContextWithEntryID(context.WithoutCancel(r.Context()), entryID)

	view := analysis.NewView(h.fetcherFor(r.Header.Get("Cookie")), entryID, h.cfg.Analysis)
	client := NewClient(ctx, h.hub, conn, view)

	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.Start()
}
