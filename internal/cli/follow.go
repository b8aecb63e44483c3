// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lebensschule/journal-edge/internal/analysis"
	"github.com/lebensschule/journal-edge/internal/models"
)

// commandContext ends on SIGINT, SIGTERM or the --timeout deadline.
func commandContext(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	if opts.Timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

// follow prints every state of view until it is terminal, then the
// artifact or the failure.
func follow(ctx context.Context, view *analysis.View, out *OutputFormatter, start func(context.Context) error) error {
	unsubscribe := view.Subscribe(func(st models.State) {
		_ = out.State(st)
	})

	if err := start(ctx); err != nil {
		unsubscribe()
		return finish(out, view.State(), err)
	}

	st, err := view.Wait(ctx)
	unsubscribe()
	return finish(out, st, err)
}

// finish maps the final state of a view to output and an exit code.
func finish(out *OutputFormatter, st models.State, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewExitError(ExitFailure, "timed out waiting for analysis (last state "+st.String()+")")
	case errors.Is(err, context.Canceled):
		return NewExitError(ExitFailure, "interrupted")
	case err != nil:
		return WrapExitError(ExitFailure, "analysis not delivered", err)
	}

	switch st.Phase {
	case models.PhaseReady:
		return out.Artifact(st.Artifact)
	case models.PhaseFailed:
		if out.Format == "json" {
			_ = out.Error("ANALYSIS_FAILED", st.Reason)
		}
		return NewExitError(ExitFailure, "analysis failed: "+st.Reason)
	default:
		return NewExitError(ExitFailure, "analysis not delivered (state "+st.String()+")")
	}
}
