// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lebensschule/journal-edge/internal/models"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Text   string
	Mood   int
	Energy int
	Watch  bool
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a journal entry",
		Long: `Create a journal entry.

Use --text - to read the entry from standard input. With --watch the
command keeps running until the entry's analysis is delivered.

Example:
  journalctl create --text "Slept well, long walk" --mood 7 --energy 6 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "entry text, or - for stdin")
	cmd.Flags().IntVar(&opts.Mood, "mood", 5, "mood score (1-10)")
	cmd.Flags().IntVar(&opts.Energy, "energy", 5, "energy score (1-10)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "follow the analysis after creating")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions) error {
	text := opts.Text
	if text == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot read entry from stdin", err)
		}
		text = strings.TrimSpace(string(raw))
	}

	req := models.CreateEntryRequest{Text: text, MoodScore: opts.Mood, EnergyScore: opts.Energy}
	if err := req.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid entry", err)
	}

	client, err := opts.client()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, opts.RootOptions)
	defer cancel()

	out := opts.formatter(cmd)
	res, err := client.CreateEntry(ctx, req)
	if err != nil {
		return WrapExitError(ExitCommandError, "create entry", err)
	}
	if err := out.Entry(res); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}
	out.VerboseLog("following analysis of entry %s", res.Entry.ID)
	return runWatch(cmd, opts.RootOptions, res.Entry.ID)
}
