// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

// Package cli implements journalctl, an operator command line for the
// journal backend. It uses the same backend client and analysis views as
// the edge service, so polling budgets and recompute semantics match.
//
// Exit codes: 0 success, 1 analysis failed or not delivered, 2 invalid
// input or backend error.
package cli
