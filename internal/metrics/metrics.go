// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of requests handled by the edge",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Edge request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight edge requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Edge Proxy Metrics
	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_proxy_requests_total",
			Help: "Total number of requests relayed to the upstream",
		},
		[]string{"method", "status"},
	)

	ProxyUpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edge_proxy_upstream_duration_seconds",
			Help:    "Upstream round-trip time in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	ProxyUpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_proxy_upstream_errors_total",
			Help: "Total number of requests that could not be relayed",
		},
		[]string{"kind"}, // "transport", "circuit_open", "body_too_large", "canceled"
	)

	// Session Gate Metrics
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_gate_decisions_total",
			Help: "Total number of session gate classifications",
		},
		[]string{"decision"}, // "skip", "allow", "redirect"
	)

	// Analysis Orchestration Metrics
	PollSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_poll_sessions_total",
			Help: "Total number of finished poll sessions by outcome",
		},
		[]string{"outcome"}, // "ready", "exhausted", "cancelled"
	)

	PollAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_poll_attempts_total",
			Help: "Total number of poll fetches by result",
		},
		[]string{"result"}, // "absent", "ready", "error"
	)

	RecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_recompute_total",
			Help: "Total number of recompute requests by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "pending", "rejected"
	)

	ViewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analysis_views_active",
			Help: "Current number of open analysis views",
		},
	)

	// Backend Client Metrics
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_backend_requests_total",
			Help: "Total number of backend API calls made by the journal client",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_backend_request_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an edge request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight edge requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordProxyRequest records one relayed request and its upstream latency.
func RecordProxyRequest(method string, status int, duration time.Duration) {
	ProxyRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	ProxyUpstreamDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordProxyError records a request the proxy answered itself.
func RecordProxyError(kind string) {
	ProxyUpstreamErrors.WithLabelValues(kind).Inc()
}

// RecordGateDecision records a session gate classification.
func RecordGateDecision(decision string) {
	GateDecisions.WithLabelValues(decision).Inc()
}

// RecordPollAttempt records the result of one poll fetch.
func RecordPollAttempt(result string) {
	PollAttempts.WithLabelValues(result).Inc()
}

// RecordPollSession records how a poll session ended.
func RecordPollSession(outcome string) {
	PollSessions.WithLabelValues(outcome).Inc()
}

// RecordRecompute records the outcome of a recompute request.
func RecordRecompute(outcome string) {
	RecomputeTotal.WithLabelValues(outcome).Inc()
}

// RecordBackendRequest records a journal client call. status is the HTTP
// status code, or "error" when no response was received.
func RecordBackendRequest(operation, status string, duration time.Duration) {
	BackendRequestsTotal.WithLabelValues(operation, status).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
