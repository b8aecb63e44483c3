// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/lebensschule/journal-edge/internal/analysis"
)

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <entry-id>",
		Short: "Recompute an entry's analysis",
		Long: `Recompute an entry's analysis.

If the backend accepts the request without returning the new analysis,
the command polls for it like watch does.

Example:
  journalctl recompute 42 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(cmd, rootOpts, args[0])
		},
	}
}

func runRecompute(cmd *cobra.Command, opts *RootOptions, entryID string) error {
	client, err := opts.client()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, opts)
	defer cancel()

	view := analysis.NewView(client, entryID, opts.analysisConfig())
	defer view.Close()

	out := opts.formatter(cmd)
	var recomputeErr error
	err = follow(ctx, view, out, func(ctx context.Context) error {
		_, recomputeErr = view.Recompute(ctx)
		if errors.Is(recomputeErr, analysis.ErrAnalysisPending) {
			out.VerboseLog("recompute accepted, polling for the result")
			return nil
		}
		return recomputeErr
	})

	if recomputeErr != nil && !errors.Is(recomputeErr, analysis.ErrAnalysisPending) {
		return WrapExitError(ExitCommandError, "recompute failed", recomputeErr)
	}
	return err
}
