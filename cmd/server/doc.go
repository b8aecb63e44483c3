// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Command server runs the journal edge: the session gate in front of the UI,
the verbatim /api proxy to the journal backend, and the analysis stream at
/ws/journal/{id}/analysis.

Startup order:

 1. Configuration (Koanf: defaults, YAML file, environment). A missing
    API_BASE_URL is fatal.
 2. Logging (zerolog, LOG_LEVEL and LOG_FORMAT).
 3. Proxy and backend client, each with its own circuit breaker.
 4. Stream hub and router.
 5. Supervisor tree: uptime, stream hub, HTTP server.

SIGINT and SIGTERM cancel the tree. The HTTP server drains for up to 10s
and the hub closes every stream with a normal-closure frame.

	export API_BASE_URL=http://backend:8000
	export STATIC_DIR=/srv/journal-ui
	./server
*/
package main
