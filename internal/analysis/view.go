// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lebensschule/journal-edge/internal/config"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
	"github.com/lebensschule/journal-edge/internal/models"
)

// Config controls polling and recompute behavior of a View.
type Config struct {
	PollInterval     time.Duration
	MaxAttempts      int
	RecomputeTimeout time.Duration
}

// DefaultConfig polls once per second for up to 15 attempts.
func DefaultConfig() Config {
	return Config{
		PollInterval:     time.Second,
		MaxAttempts:      15,
		RecomputeTimeout: 2 * time.Minute,
	}
}

// FromConfig converts the service configuration section.
func FromConfig(c config.AnalysisConfig) Config {
	return Config{
		PollInterval:     c.PollInterval,
		MaxAttempts:      c.MaxAttempts,
		RecomputeTimeout: c.RecomputeTimeout,
	}
}

func (c Config) poll() PollConfig {
	return PollConfig{Interval: c.PollInterval, MaxAttempts: c.MaxAttempts}
}

// View observes the analysis of one entry on behalf of one consumer.
//
// All state writes happen under mu after checking the guard, and subscribers
// are notified under the same lock so they observe writes in order.
// Subscribers must not call back into the View.
type View struct {
	id      string
	entryID string
	cfg     Config
	fetcher Fetcher
	guard   *Guard
	logger  zerolog.Logger

	mu          sync.Mutex
	state       models.State
	session     *PollSession
	recomputing bool
	opened      bool
	epoch       uint64
	sessions    int
	changed     chan struct{}
	subscribers map[int]func(models.State)
	nextSubID   int
}

// NewView creates an idle view for entryID. Call Open to start observing and
// Close to tear down.
func NewView(f Fetcher, entryID string, cfg Config) *View {
	id := uuid.NewString()
	metrics.ViewsActive.Inc()

	return &View{
		id:          id,
		entryID:     entryID,
		cfg:         cfg,
		fetcher:     f,
		guard:       NewGuard(context.Background()),
		logger:      logging.With().Str("component", "analysis").Str("view_id", id).Str("entry_id", entryID).Logger(),
		state:       models.IdleState(),
		changed:     make(chan struct{}),
		subscribers: make(map[int]func(models.State)),
	}
}

// ID returns the unique view id.
func (v *View) ID() string { return v.id }

// EntryID returns the observed entry.
func (v *View) EntryID() string { return v.entryID }

// State returns a snapshot of the current state.
func (v *View) State() models.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	return !v.guard.Active()
}

// Subscribe registers fn for state changes and calls it once with the
// current state. The returned function removes the subscription.
func (v *View) Subscribe(fn func(models.State)) (unsubscribe func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.guard.Active() {
		return func() {}
	}

	id := v.nextSubID
	v.nextSubID++
	v.subscribers[id] = fn
	fn(v.state)

	return func() {
		v.mu.Lock()
		delete(v.subscribers, id)
		v.mu.Unlock()
	}
}

// Open performs the immediate fetch. A present artifact moves the view to
// Ready without starting a poll session; otherwise the view moves to Pending
// and polls in the background. A failed initial fetch is treated as absent.
// Calling Open again returns the current state. When ctx ends before the
// fetch resolves, the view returns to Idle and may be opened again.
func (v *View) Open(ctx context.Context) (models.State, error) {
	v.mu.Lock()
	if !v.guard.Active() {
		v.mu.Unlock()
		return v.state, ErrViewClosed
	}
	if v.opened {
		st := v.state
		v.mu.Unlock()
		return st, nil
	}
	v.opened = true
	v.setLocked(models.FetchingState())
	epoch := v.epoch
	v.mu.Unlock()

	if err := v.initialFetch(ctx, epoch); err != nil {
		return v.State(), err
	}
	return v.State(), nil
}

// initialFetch resolves Fetching into Ready or Pending. The result is
// discarded when the view was closed or a recompute took over meanwhile.
func (v *View) initialFetch(ctx context.Context, epoch uint64) error {
	fctx, cancel := context.WithCancel(v.guard.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	artifact, err := v.fetcher.FetchAnalysis(fctx, v.entryID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.guard.Active() {
		return ErrViewClosed
	}
	if v.epoch != epoch {
		return nil
	}

	if artifact != nil {
		v.logger.Debug().Msg("Analysis available on first fetch")
		v.setLocked(models.ReadyState(artifact))
		return nil
	}
	if ctx.Err() != nil {
		v.opened = false
		v.setLocked(models.IdleState())
		return ctx.Err()
	}

	if err != nil {
		v.logger.Debug().Err(err).Msg("Initial analysis fetch failed, polling")
	}
	v.setLocked(models.PendingState(0, v.cfg.MaxAttempts))
	v.startPollingLocked(0)
	return nil
}

// startPollingLocked starts a session that has already used `used` attempts.
func (v *View) startPollingLocked(used int) {
	v.sessions++
	v.session = startPolling(v.guard.Context(), v.fetcher, v.entryID, v.cfg.poll(), used, v.onPoll)
}

// onPoll applies a poll event if its session is still the current one.
func (v *View) onPoll(s *PollSession, ev PollEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.guard.Active() || v.session != s || s.Cancelled() {
		return
	}

	switch {
	case ev.Artifact != nil:
		v.session = nil
		v.setLocked(models.ReadyState(ev.Artifact))
	case ev.Exhausted:
		v.session = nil
		v.setLocked(models.FailedState(models.ReasonExhausted))
	default:
		v.setLocked(models.PendingState(ev.Attempt, s.MaxAttempts()))
	}
}

// Recompute asks the backend to recompute the analysis and waits for the
// result.
//
// The view shows Recomputing while the request runs and any poll session is
// cancelled. On success the new artifact replaces the old one. On failure
// the exact prior state is restored and the error returned. When the backend
// has no result yet the view polls for it and ErrAnalysisPending is returned.
func (v *View) Recompute(ctx context.Context) (*models.Artifact, error) {
	v.mu.Lock()
	if !v.guard.Active() {
		v.mu.Unlock()
		return nil, ErrViewClosed
	}
	if v.recomputing {
		v.mu.Unlock()
		metrics.RecordRecompute("rejected")
		return nil, ErrRecomputeInProgress
	}

	v.recomputing = true
	v.epoch++
	prev := v.state
	used := prev.Attempts
	if v.session != nil {
		// A fetch in flight counts even though its result is discarded.
		used = max(used, v.session.AttemptsUsed())
		v.session.Cancel()
		v.session = nil
	}
	v.setLocked(models.RecomputingState(prev.Artifact))
	v.mu.Unlock()

	rctx, cancel := context.WithTimeout(v.guard.Context(), v.cfg.RecomputeTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	artifact, err := v.fetcher.RecomputeAnalysis(rctx, v.entryID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.recomputing = false

	if !v.guard.Active() {
		return nil, ErrViewClosed
	}

	switch {
	case err != nil:
		metrics.RecordRecompute("failure")
		v.logger.Warn().Err(err).Str("restored", prev.String()).Msg("Recompute failed")
		v.restoreLocked(prev, used)
		return nil, fmt.Errorf("recompute analysis for entry %s: %w", v.entryID, err)

	case artifact == nil:
		metrics.RecordRecompute("pending")
		v.logger.Info().Msg("Recompute accepted without result, polling")
		v.setLocked(models.PendingState(0, v.cfg.MaxAttempts))
		v.startPollingLocked(0)
		return nil, ErrAnalysisPending

	default:
		metrics.RecordRecompute("success")
		v.setLocked(models.ReadyState(artifact))
		return artifact, nil
	}
}

// restoreLocked puts prev back and resumes whatever was driving it. A
// resumed poll session continues from the `used` attempts already spent;
// when none remain the view fails as exhausted.
func (v *View) restoreLocked(prev models.State, used int) {
	v.setLocked(prev)

	switch prev.Phase {
	case models.PhasePending:
		switch {
		case prev.RemainingAttempts() <= 0:
		case used >= v.cfg.MaxAttempts:
			v.setLocked(models.FailedState(models.ReasonExhausted))
		default:
			v.startPollingLocked(used)
		}
	case models.PhaseFetching:
		epoch := v.epoch
		go func() {
			_ = v.initialFetch(context.Background(), epoch)
		}()
	}
}

// Wait blocks until the state is Ready or Failed, the view is closed, or ctx
// ends. It returns the last observed state.
func (v *View) Wait(ctx context.Context) (models.State, error) {
	for {
		v.mu.Lock()
		st := v.state
		changed := v.changed
		active := v.guard.Active()
		v.mu.Unlock()

		if st.IsTerminal() {
			return st, nil
		}
		if !active {
			return st, ErrViewClosed
		}

		select {
		case <-changed:
		case <-v.guard.Done():
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close fires the guard and cancels any poll session. No state write happens
// after Close returns. Safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.guard.Release() {
		return
	}
	v.epoch++
	if v.session != nil {
		v.session.Cancel()
		v.session = nil
	}
	v.subscribers = make(map[int]func(models.State))
	metrics.ViewsActive.Dec()
	v.logger.Debug().Str("state", v.state.String()).Msg("View closed")
}

// setLocked writes the state and notifies subscribers. Callers hold mu and
// have checked the guard.
func (v *View) setLocked(s models.State) {
	v.state = s
	close(v.changed)
	v.changed = make(chan struct{})

	for _, fn := range v.subscribers {
		fn(s)
	}
}
