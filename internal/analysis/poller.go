// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package analysis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
	"github.com/lebensschule/journal-edge/internal/models"
)

// Fetcher is the backend surface the orchestration core depends on.
//
// Both methods return (nil, nil) when the backend has no analysis yet.
type Fetcher interface {
	FetchAnalysis(ctx context.Context, entryID string) (*models.Artifact, error)
	RecomputeAnalysis(ctx context.Context, entryID string) (*models.Artifact, error)
}

// PollConfig bounds a poll session.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// PollEvent reports the outcome of one poll attempt.
type PollEvent struct {
	// Attempt is the number of attempts used so far, including this one.
	Attempt int

	// Artifact is set when the analysis became available.
	Artifact *models.Artifact

	// Err is a swallowed transient error. It is informational only.
	Err error

	// Exhausted is set on the last attempt when no artifact was found.
	Exhausted bool
}

// PollReporter receives poll events on the session goroutine.
// It must not block for long; the next tick is scheduled after it returns.
type PollReporter func(s *PollSession, ev PollEvent)

// Session outcomes recorded in metrics.
const (
	outcomeReady     = "ready"
	outcomeExhausted = "exhausted"
	outcomeCancelled = "cancelled"
)

// PollSession is an owned handle for a bounded, cancellable sequence of
// fetches for one entry.
type PollSession struct {
	entryID     string
	interval    time.Duration
	maxAttempts int

	fetcher Fetcher
	report  PollReporter
	logger  zerolog.Logger

	attempts  atomic.Int32
	cancelled atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// StartPolling starts a session that fetches entryID every cfg.Interval until
// an artifact arrives, cfg.MaxAttempts fetches were made, or the session is
// cancelled. The first fetch happens one interval after the call.
func StartPolling(ctx context.Context, f Fetcher, entryID string, cfg PollConfig, report PollReporter) *PollSession {
	return startPolling(ctx, f, entryID, cfg, 0, report)
}

// startPolling starts a session that has already used `used` attempts.
func startPolling(ctx context.Context, f Fetcher, entryID string, cfg PollConfig, used int, report PollReporter) *PollSession {
	sctx, cancel := context.WithCancel(ctx)

	s := &PollSession{
		entryID:     entryID,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		fetcher:     f,
		report:      report,
		logger:      logging.With().Str("component", "poller").Str("entry_id", entryID).Logger(),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	s.attempts.Store(int32(used))

	go s.run(sctx)
	return s
}

// EntryID returns the entry being polled.
func (s *PollSession) EntryID() string { return s.entryID }

// Interval returns the delay between attempts.
func (s *PollSession) Interval() time.Duration { return s.interval }

// MaxAttempts returns the attempt budget.
func (s *PollSession) MaxAttempts() int { return s.maxAttempts }

// AttemptsUsed returns the number of fetches started so far.
func (s *PollSession) AttemptsUsed() int { return int(s.attempts.Load()) }

// Cancelled reports whether Cancel was called.
func (s *PollSession) Cancelled() bool { return s.cancelled.Load() }

// Done is closed once the session goroutine has exited and its timer is
// stopped.
func (s *PollSession) Done() <-chan struct{} { return s.done }

// Cancel stops the session. Results of a fetch still in flight are
// discarded. Safe to call more than once and from any goroutine.
func (s *PollSession) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.cancel()
	}
}

func (s *PollSession) run(ctx context.Context) {
	defer close(s.done)
	defer s.cancel()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cancelled.Store(true)
			metrics.RecordPollSession(outcomeCancelled)
			return
		case <-timer.C:
		}

		if s.Cancelled() {
			metrics.RecordPollSession(outcomeCancelled)
			return
		}

		attempt := int(s.attempts.Add(1))
		artifact, err := s.fetcher.FetchAnalysis(ctx, s.entryID)

		// Anything that completes after cancellation is stale.
		if s.Cancelled() || ctx.Err() != nil {
			s.cancelled.Store(true)
			metrics.RecordPollSession(outcomeCancelled)
			return
		}

		ev := PollEvent{Attempt: attempt, Artifact: artifact, Err: err}

		switch {
		case artifact != nil:
			metrics.RecordPollAttempt("ready")
			metrics.RecordPollSession(outcomeReady)
			s.logger.Debug().Int("attempt", attempt).Msg("Analysis ready")
			s.report(s, ev)
			return

		case err != nil:
			metrics.RecordPollAttempt("error")
			s.logger.Debug().Err(err).Int("attempt", attempt).Int("max_attempts", s.maxAttempts).Msg("Poll fetch failed, continuing")

		default:
			metrics.RecordPollAttempt("absent")
			s.logger.Debug().Int("attempt", attempt).Int("max_attempts", s.maxAttempts).Msg("Analysis not ready")
		}

		if attempt >= s.maxAttempts {
			ev.Exhausted = true
			metrics.RecordPollSession(outcomeExhausted)
			s.logger.Info().Int("attempts", attempt).Msg("Poll attempts exhausted without analysis")
			s.report(s, ev)
			return
		}

		s.report(s, ev)
		timer.Reset(s.interval)
	}
}
