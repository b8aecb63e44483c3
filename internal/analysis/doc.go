// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package analysis orchestrates how a consumer observes the analysis of one
journal entry: the initial fetch, bounded polling while the backend is still
computing, and user-triggered recomputation.

# Components

  - Guard: cancellation token scoped to one observation period. Released
    exactly once; every asynchronous continuation checks it before writing.
  - PollSession: owned handle for a bounded sequence of fetches. One
    goroutine, one timer, at most one fetch in flight. Cancel is idempotent
    and safe from any goroutine, including the session's own callback.
  - View: owns one models.State, one Guard, at most one PollSession and at
    most one recompute for a single entry.

# State Machine

	Idle -> Fetching -> Ready
	                 -> Pending(0,N) -> Pending(k,N) ... -> Ready
	                                                    -> Failed(exhausted)
	any -> Recomputing -> Ready | previous state (on error)
	                   -> Pending(0,N) (backend still computing)

Transient fetch errors while polling are logged at debug level and count as a
used attempt. Exhaustion is a soft terminal state, not an error.

# Recompute

Recompute performs one synchronous request. While it runs the active poll
session is cancelled and a second Recompute is rejected with
ErrRecomputeInProgress. On failure the exact prior state is restored and an
interrupted poll session resumes with its remaining attempts. An empty
recompute response starts a fresh poll session and returns
ErrAnalysisPending.

# Example

	view := analysis.NewView(client, entryID, analysis.DefaultConfig())
	defer view.Close()

	unsubscribe := view.Subscribe(func(s models.State) {
	    fmt.Println(s)
	})
	defer unsubscribe()

	if _, err := view.Open(ctx); err != nil {
	    return err
	}
	final, err := view.Wait(ctx)
*/
package analysis
