// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lebensschule/journal-edge/internal/analysis"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <entry-id>",
		Short: "Follow an entry's analysis until it is delivered",
		Long: `Follow an entry's analysis until it is delivered.

The analysis is fetched once. If it is not there yet it is polled every
--interval for up to --max-attempts attempts. Every state change is
printed. Exit status 1 means the analysis was not delivered.

Example:
  journalctl watch 42 --interval 2s --max-attempts 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootOpts, args[0])
		},
	}
}

func runWatch(cmd *cobra.Command, opts *RootOptions, entryID string) error {
	client, err := opts.client()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, opts)
	defer cancel()

	view := analysis.NewView(client, entryID, opts.analysisConfig())
	defer view.Close()

	return follow(ctx, view, opts.formatter(cmd), func(ctx context.Context) error {
		_, err := view.Open(ctx)
		return err
	})
}
