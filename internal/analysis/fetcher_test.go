// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lebensschule/journal-edge/internal/models"
)

var errBackend = errors.New("backend unavailable")

// step scripts one fetch response. A non-nil block delays the response until
// it is closed, ignoring context cancellation to simulate a late completion.
type step struct {
	artifact *models.Artifact
	err      error
	delay    time.Duration
	block    chan struct{}
}

// fakeFetcher replays scripted responses. The last fetch step repeats.
type fakeFetcher struct {
	mu          sync.Mutex
	fetches     []step
	fetchCalls  int
	inFlight    int
	maxInFlight int

	recompute      func(ctx context.Context) (*models.Artifact, error)
	recomputeCalls int
}

func (f *fakeFetcher) FetchAnalysis(_ context.Context, _ string) (*models.Artifact, error) {
	f.mu.Lock()
	idx := f.fetchCalls
	f.fetchCalls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	var st step
	if len(f.fetches) > 0 {
		if idx >= len(f.fetches) {
			idx = len(f.fetches) - 1
		}
		st = f.fetches[idx]
	}
	f.mu.Unlock()

	if st.delay > 0 {
		time.Sleep(st.delay)
	}
	if st.block != nil {
		<-st.block
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return st.artifact, st.err
}

func (f *fakeFetcher) RecomputeAnalysis(ctx context.Context, _ string) (*models.Artifact, error) {
	f.mu.Lock()
	f.recomputeCalls++
	fn := f.recompute
	f.mu.Unlock()

	if fn == nil {
		return nil, errBackend
	}
	return fn(ctx)
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func testArtifact(id string) *models.Artifact {
	return &models.Artifact{
		ID:           id,
		EntryID:      "entry-1",
		Language:     "de",
		Reflection:   "Ein ruhiger Tag.",
		PillarScores: map[string]float64{"herz": 7},
		Themes:       []string{"Ruhe"},
	}
}

func testConfig(maxAttempts int) Config {
	return Config{
		PollInterval:     5 * time.Millisecond,
		MaxAttempts:      maxAttempts,
		RecomputeTimeout: time.Second,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session to finish")
	}
}

// recorder collects every state a subscriber sees.
type recorder struct {
	mu     sync.Mutex
	states []models.State
}

func (r *recorder) record(s models.State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []models.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.State(nil), r.states...)
}

func currentSession(v *View) *PollSession {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

func sessionsStarted(v *View) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sessions
}
