// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Gate     GateConfig     `koanf:"gate"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	StaticDir   string        `koanf:"static_dir"`  // compiled UI assets; empty disables
	Environment string        `koanf:"environment"` // development, staging, production
}

// UpstreamConfig describes the backend origin the edge proxy and the
// analysis client talk to.
type UpstreamConfig struct {
	BaseURL string `koanf:"base_url"`

	// FallbackBaseURL is consulted only when BaseURL is empty.
	FallbackBaseURL string `koanf:"fallback_base_url"`

	// APIPrefix is the path under which the backend serves its API,
	// e.g. "/api" for GET /api/journal/{id}/analysis.
	APIPrefix string `koanf:"api_prefix"`

	Timeout      time.Duration `koanf:"timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`

	// RateLimit and RateBurst bound outbound calls made by the analysis
	// client (polls, recomputes). Proxied traffic is not limited here.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// GateConfig holds the session gate path tables.
type GateConfig struct {
	CookieName        string   `koanf:"cookie_name"`
	LoginPath         string   `koanf:"login_path"`
	ProtectedPrefixes []string `koanf:"protected_prefixes"`
	ExemptPaths       []string `koanf:"exempt_paths"`
	SkipPrefixes      []string `koanf:"skip_prefixes"`
}

// AnalysisConfig holds poller and recompute settings.
type AnalysisConfig struct {
	PollInterval     time.Duration `koanf:"poll_interval"`
	MaxAttempts      int           `koanf:"max_attempts"`
	RecomputeTimeout time.Duration `koanf:"recompute_timeout"`
}

// SecurityConfig holds CORS and inbound rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "" || c.Server.Environment == "development"
}

// ShouldWarnAboutCORS reports whether a wildcard origin is configured while
// credentialed (cookie) requests are relayed.
func (c *Config) ShouldWarnAboutCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
