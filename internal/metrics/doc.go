// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package metrics provides Prometheus metrics for the edge service.

All collectors are registered with the default registry through promauto and
exposed at /metrics:

	curl http://localhost:3000/metrics

# Available Metrics

Edge requests:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

Proxy and gate:
  - edge_proxy_requests_total{method,status}
  - edge_proxy_upstream_duration_seconds{method}
  - edge_proxy_upstream_errors_total{kind}
  - edge_gate_decisions_total{decision}

Analysis orchestration:
  - analysis_poll_sessions_total{outcome}: ready, exhausted, cancelled
  - analysis_poll_attempts_total{result}: absent, ready, error
  - analysis_recompute_total{outcome}: success, failure, pending, rejected
  - analysis_views_active

Backend client:
  - journal_backend_requests_total{operation,status}
  - journal_backend_request_duration_seconds{operation}

WebSocket:
  - websocket_connections_active
  - websocket_messages_sent_total, websocket_messages_received_total
  - websocket_errors_total{error_type}

Circuit breakers (labelled by breaker name, "edge-proxy" or "journal-api"):
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

# Example Queries

Share of poll sessions that ran out of attempts:

	sum(rate(analysis_poll_sessions_total{outcome="exhausted"}[1h]))
	  / sum(rate(analysis_poll_sessions_total[1h]))

p95 upstream latency:

	histogram_quantile(0.95, rate(edge_proxy_upstream_duration_seconds_bucket[5m]))
*/
package metrics
