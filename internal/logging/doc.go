// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

// Package logging provides the zerolog-based logger shared by every
// component of the edge service and the journalctl CLI.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("upstream", base).Msg("Proxy ready")
//	logging.Ctx(ctx).Debug().Int("attempt", n).Msg("Analysis not ready")
//
// # Context
//
// The router stores a request ID and a correlation ID on every inbound
// request context. Ctx(ctx) returns a logger carrying both, so a proxied
// request and the backend calls made on its behalf can be joined in the
// log stream. Analysis streams add the entry id with ContextWithEntryID.
//
// # Configuration
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
//
// # Sensitive Values
//
// Session cookies travel through the proxy on every request. Never log a
// raw Cookie, Set-Cookie or Authorization header; pass header sets through
// SanitizeHeaders first.
//
// # Supervisor Integration
//
// NewSlogLogger adapts the global logger to log/slog so that sutureslog can
// report supervisor events through the same sink.
package logging
