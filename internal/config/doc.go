// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package config loads and validates the edge service configuration.

# Configuration Sources

Layers are applied with Koanf v2, later layers winning:

  - Built-in defaults (defaultConfig)
  - YAML file: $CONFIG_PATH, ./config.yaml or /etc/journal-edge/config.yaml
  - Environment variables (explicit mapping, unknown names ignored)

# Environment Variables

Upstream:
  - API_BASE_URL: backend origin, e.g. http://backend:8000 (required)
  - NEXT_PUBLIC_API_BASE_URL: used when API_BASE_URL is unset
  - UPSTREAM_API_PREFIX: backend API path prefix (default: /api)
  - UPSTREAM_TIMEOUT: per-request upstream timeout (default: 30s)
  - PROXY_MAX_BODY_BYTES: largest request body relayed (default: 10 MiB)

Session gate:
  - SESSION_COOKIE_NAME (default: access_token)
  - LOGIN_PATH (default: /login)
  - GATE_PROTECTED_PREFIXES, GATE_EXEMPT_PATHS, GATE_SKIP_PREFIXES: comma-separated

Analysis:
  - ANALYSIS_POLL_INTERVAL (default: 1s)
  - ANALYSIS_MAX_ATTEMPTS (default: 15)
  - ANALYSIS_RECOMPUTE_TIMEOUT (default: 2m)

Server, security and logging:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, STATIC_DIR, ENVIRONMENT
  - CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

A missing or malformed upstream origin fails Load. The server treats that
as fatal and exits before binding its listener.
*/
package config
