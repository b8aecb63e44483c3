// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package analysis

import (
	"context"
	"sync/atomic"
)

// Guard is a cancellation token for one observation period.
//
// It starts active and is released exactly once. Its context is cancelled on
// release so in-flight requests stop early, but writers must still check
// Active before mutating state because a request may complete after release.
type Guard struct {
	ctx      context.Context
	cancel   context.CancelFunc
	released atomic.Bool
}

// NewGuard creates an active guard whose context derives from parent.
func NewGuard(parent context.Context) *Guard {
	ctx, cancel := context.WithCancel(parent)
	return &Guard{ctx: ctx, cancel: cancel}
}

// Release fires the guard. It reports whether this call was the one that
// released it; later calls are no-ops.
func (g *Guard) Release() bool {
	if !g.released.CompareAndSwap(false, true) {
		return false
	}
	g.cancel()
	return true
}

// Active reports whether the guard has not been released.
func (g *Guard) Active() bool {
	return !g.released.Load()
}

// Context returns a context cancelled when the guard is released.
func (g *Guard) Context() context.Context {
	return g.ctx
}

// Done is closed when the guard is released or its parent context ends.
func (g *Guard) Done() <-chan struct{} {
	return g.ctx.Done()
}
