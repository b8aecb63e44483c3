// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package api

import (
	"net/http"
	"time"

	"github.com/lebensschule/journal-edge/internal/breaker"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	startTime time.Time

	// critical breakers take the edge out of rotation while open.
	critical []*breaker.Breaker

	// informational breakers are reported but never fail readiness.
	informational []*breaker.Breaker

	activeStreams func() int
}

// HealthStatus is the probe payload.
type HealthStatus struct {
	Status        string            `json:"status"`
	Uptime        float64           `json:"uptime_seconds"`
	Breakers      map[string]string `json:"breakers,omitempty"`
	ActiveStreams int               `json:"active_streams"`
}

// NewHealthHandler creates the probe handler. activeStreams may be nil.
func NewHealthHandler(critical, informational []*breaker.Breaker, activeStreams func() int) *HealthHandler {
	return &HealthHandler{
		startTime:     time.Now(),
		critical:      critical,
		informational: informational,
		activeStreams: activeStreams,
	}
}

// Live returns 200 as long as the process serves requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// Ready returns 503 while any critical breaker is open.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:   "ready",
		Uptime:   time.Since(h.startTime).Seconds(),
		Breakers: make(map[string]string, len(h.critical)+len(h.informational)),
	}
	if h.activeStreams != nil {
		status.ActiveStreams = h.activeStreams()
	}

	statusCode := http.StatusOK
	for _, b := range h.critical {
		status.Breakers[b.Name()] = b.State()
		if b.IsOpen() {
			statusCode = http.StatusServiceUnavailable
			status.Status = "not_ready"
		}
	}
	for _, b := range h.informational {
		state := b.State()
		status.Breakers[b.Name()] = state
		if b.IsOpen() && status.Status == "ready" {
			status.Status = "degraded"
		}
	}

	NewResponseWriter(w, r).SuccessWithStatus(statusCode, status)
}
