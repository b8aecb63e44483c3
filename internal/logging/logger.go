// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error or
	// disabled. Unknown values fall back to info.
	Level string

	// Format is json (default) or console.
	Format string

	// Caller adds file:line to every line.
	Caller bool

	// Timestamp adds an RFC 3339 "time" field.
	Timestamp bool

	// Service and Version are stamped on every line when set, so lines
	// from the edge server and journalctl can be told apart in one sink.
	Service string
	Version string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
)

//nolint:gochecknoinits // packages log before main calls Init
func init() {
	base = build(DefaultConfig())
}

// Init replaces the global logger. Calling it again reconfigures.
func Init(cfg Config) {
	l := build(cfg)

	mu.Lock()
	base = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.MessageFieldName = "message"
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	c := zerolog.New(out).With()
	if cfg.Timestamp {
		c = c.Timestamp()
	}
	if cfg.Caller {
		c = c.Caller()
	}
	if cfg.Service != "" {
		c = c.Str("service", cfg.Service)
	}
	if cfg.Version != "" {
		c = c.Str("version", cfg.Version)
	}
	return c.Logger()
}

// parseLevel accepts zerolog level names plus "warning". Anything else,
// including the empty string, is info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zerolog.WarnLevel
	}
	if level == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetLevelString changes the global level without rebuilding the logger.
func SetLevelString(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetLogger replaces the global logger. Tests use it to capture output.
//
//nolint:gocritic // zerolog.Logger is passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

// With starts a child logger of the global logger.
//
//	log := logging.With().Str("entry_id", id).Logger()
func With() zerolog.Context {
	l := current()
	return l.With()
}

// Info starts an info event on the global logger.
func Info() *zerolog.Event {
	l := current()
	return l.Info()
}

// Warn starts a warn event on the global logger.
func Warn() *zerolog.Event {
	l := current()
	return l.Warn()
}

// Error starts an error event on the global logger.
func Error() *zerolog.Event {
	l := current()
	return l.Error()
}

// Fatal starts a fatal event. os.Exit(1) follows the message.
func Fatal() *zerolog.Event {
	l := current()
	return l.Fatal()
}

// NewTestLogger writes JSON lines to w.
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
