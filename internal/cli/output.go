// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lebensschule/journal-edge/internal/models"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Analysis failed or was not delivered in time
	ExitCommandError = 2 // Invalid flags, input or backend errors
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// an ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics, keeps JSON output parseable
	Verbose   bool
}

// CLIResponse is one JSON output line.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Kind   string      `json:"kind,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Entry prints a created entry.
func (f *OutputFormatter) Entry(res *models.CreateEntryResult) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Kind: "entry", Data: res})
	}
	_, err := fmt.Fprintf(f.Writer, "entry %s created (analysis %s)\n", res.Entry.ID, res.AnalysisStatus)
	return err
}

// State prints one analysis state transition.
func (f *OutputFormatter) State(st models.State) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Kind: "state", Data: st})
	}
	_, err := fmt.Fprintf(f.Writer, "state: %s\n", st)
	return err
}

// Artifact prints a delivered analysis.
func (f *OutputFormatter) Artifact(a *models.Artifact) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Kind: "artifact", Data: a})
	}
	_, err := io.WriteString(f.Writer, formatArtifact(a))
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}

// VerboseLog writes a diagnostic line when verbose output is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encode(v interface{}) error {
	return json.NewEncoder(f.Writer).Encode(v)
}

func formatArtifact(a *models.Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "analysis %s for entry %s\n", a.ID, a.EntryID)
	if a.RiskFlags.Any() {
		b.WriteString("  ! risk flags raised, review before sharing\n")
	}
	if len(a.Emotions) > 0 {
		parts := make([]string, 0, len(a.Emotions))
		for _, e := range a.Emotions {
			parts = append(parts, fmt.Sprintf("%s %.2f", e.Name, e.Intensity))
		}
		fmt.Fprintf(&b, "  emotions: %s\n", strings.Join(parts, ", "))
	}
	if len(a.Themes) > 0 {
		fmt.Fprintf(&b, "  themes:   %s\n", strings.Join(a.Themes, ", "))
	}
	if len(a.PillarScores) > 0 {
		pillars := make([]string, 0, len(a.PillarScores))
		for p := range a.PillarScores {
			pillars = append(pillars, p)
		}
		sort.Strings(pillars)
		b.WriteString("  pillars:\n")
		for _, p := range pillars {
			fmt.Fprintf(&b, "    %-12s %4.1f\n", p, a.PillarScores[p])
		}
	}
	if a.Reflection != "" {
		fmt.Fprintf(&b, "  reflection: %s\n", a.Reflection)
	}
	for _, r := range a.Recommendations.Daily {
		fmt.Fprintf(&b, "  today: %s\n", r)
	}
	for _, r := range a.Recommendations.Weekly {
		fmt.Fprintf(&b, "  this week: %s\n", r)
	}
	return b.String()
}
