// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package middleware provides HTTP middleware shared by every edge route.

Key Components:

  - RequestID: UUID request ids for log correlation, echoed as X-Request-ID
  - PrometheusMetrics: request count, latency and in-flight instrumentation

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics labels requests with the chi route pattern
(e.g. /ws/journal/{id}/analysis), never the raw path, so series stay
bounded. It must run inside the router so the pattern is known when the
handler returns.

See Also:

  - internal/api: router assembling the middleware stack
  - internal/metrics: metric definitions
*/
package middleware
