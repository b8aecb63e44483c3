// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lebensschule/journal-edge/internal/analysis"
	"github.com/lebensschule/journal-edge/internal/journal"
	"github.com/lebensschule/journal-edge/internal/logging"
)

// Environment variables consulted when the matching flag is empty.
const (
	EnvBaseURL = "JOURNAL_API_URL"
	EnvSession = "JOURNAL_SESSION"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	BaseURL    string
	Prefix     string
	Cookie     string
	CookieName string

	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// NewRootCommand creates the journalctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "journalctl",
		Short: "Operate on journal entries and their analysis",
		Long: `journalctl talks to the journal backend directly.

It creates entries, follows an entry's analysis until it is delivered
or the polling budget runs out, and requests recomputes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.complete()
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.BaseURL, "base-url", "", "backend origin (env "+EnvBaseURL+")")
	flags.StringVar(&opts.Prefix, "prefix", "/api", "backend API path prefix")
	flags.StringVar(&opts.Cookie, "cookie", "", "session token or raw Cookie header (env "+EnvSession+")")
	flags.StringVar(&opts.CookieName, "cookie-name", "access_token", "session cookie name used when --cookie is a bare token")
	flags.DurationVar(&opts.Interval, "interval", time.Second, "poll interval")
	flags.IntVar(&opts.MaxAttempts, "max-attempts", 15, "poll attempts before giving up")
	flags.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall command timeout")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewRecomputeCommand(opts))

	return cmd
}

// complete validates flags and fills environment defaults.
func (o *RootOptions) complete() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if o.BaseURL == "" {
		o.BaseURL = os.Getenv(EnvBaseURL)
	}
	if o.BaseURL == "" {
		return NewExitError(ExitCommandError, "--base-url or "+EnvBaseURL+" is required")
	}
	if o.Cookie == "" {
		o.Cookie = os.Getenv(EnvSession)
	}
	if o.Interval <= 0 {
		return NewExitError(ExitCommandError, "--interval must be positive")
	}
	if o.MaxAttempts < 1 {
		return NewExitError(ExitCommandError, "--max-attempts must be at least 1")
	}

	if o.Verbose {
		logging.SetLevelString("debug")
	} else {
		logging.SetLevelString("warn")
	}
	return nil
}

// cookieHeader returns the Cookie header to forward.
func (o *RootOptions) cookieHeader() string {
	if o.Cookie == "" || strings.Contains(o.Cookie, "=") {
		return o.Cookie
	}
	return o.CookieName + "=" + o.Cookie
}

func (o *RootOptions) analysisConfig() analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.PollInterval = o.Interval
	cfg.MaxAttempts = o.MaxAttempts
	if o.Timeout > 0 {
		cfg.RecomputeTimeout = o.Timeout
	}
	return cfg
}

func (o *RootOptions) client() (*journal.Client, error) {
	c, err := journal.NewClient(journal.Options{
		BaseURL:   o.BaseURL,
		APIPrefix: o.Prefix,
		Timeout:   30 * time.Second,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot create backend client", err)
	}
	return c.WithCookie(o.cookieHeader()), nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
