// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package api assembles the edge HTTP surface on a chi router.

Routes:

	/api, /api/*                   relayed verbatim to the backend (any method)
	/ws/journal/{id}/analysis      analysis state stream (WebSocket)
	/healthz/live                  liveness probe
	/healthz/ready                 readiness probe, 503 while the proxy breaker is open
	/metrics                       Prometheus exposition
	everything else                compiled UI from STATIC_DIR, or a 404 envelope

Global middleware runs in this order: request ID, real IP, panic recovery,
CORS and the session gate. Responses the edge generates itself use the
APIResponse envelope; proxied responses are never wrapped.
*/
package api
