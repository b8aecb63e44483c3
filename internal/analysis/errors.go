// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package analysis

import "errors"

var (
	// ErrRecomputeInProgress is returned when a recompute is requested while
	// another one for the same view is outstanding.
	ErrRecomputeInProgress = errors.New("analysis: recompute already in progress")

	// ErrViewClosed is returned by operations on a view that was closed.
	ErrViewClosed = errors.New("analysis: view closed")

	// ErrAnalysisPending is returned when the backend accepted a recompute
	// but has no result yet. The view is polling for it.
	ErrAnalysisPending = errors.New("analysis: recompute accepted, result pending")
)
