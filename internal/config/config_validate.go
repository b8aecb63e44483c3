// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUpstreamURLRequired is returned when neither API_BASE_URL nor
// NEXT_PUBLIC_API_BASE_URL is set.
var ErrUpstreamURLRequired = errors.New("API_BASE_URL is required (or NEXT_PUBLIC_API_BASE_URL as fallback)")

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateUpstream(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateGate(); err != nil {
		return err
	}

	if err := c.validateAnalysis(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateUpstream() error {
	if c.Upstream.BaseURL == "" {
		return ErrUpstreamURLRequired
	}
	if err := validateHTTPURL(c.Upstream.BaseURL, "API_BASE_URL"); err != nil {
		return err
	}
	if c.Upstream.APIPrefix != "" && !strings.HasPrefix(c.Upstream.APIPrefix, "/") {
		return fmt.Errorf("UPSTREAM_API_PREFIX must start with '/', got: %s", c.Upstream.APIPrefix)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got: %v", c.Upstream.Timeout)
	}
	if c.Upstream.MaxBodyBytes <= 0 {
		return fmt.Errorf("PROXY_MAX_BODY_BYTES must be positive, got: %d", c.Upstream.MaxBodyBytes)
	}
	if c.Upstream.RateLimit <= 0 || c.Upstream.RateBurst < 1 {
		return fmt.Errorf("UPSTREAM_RATE_LIMIT and UPSTREAM_RATE_BURST must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got: %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "", "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging, or production, got: %s", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateGate() error {
	if c.Gate.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if !strings.HasPrefix(c.Gate.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must start with '/', got: %s", c.Gate.LoginPath)
	}
	for _, p := range c.Gate.ProtectedPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("GATE_PROTECTED_PREFIXES entries must start with '/', got: %s", p)
		}
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.PollInterval <= 0 {
		return fmt.Errorf("ANALYSIS_POLL_INTERVAL must be positive, got: %v", c.Analysis.PollInterval)
	}
	if c.Analysis.MaxAttempts < 1 {
		return fmt.Errorf("ANALYSIS_MAX_ATTEMPTS must be at least 1, got: %d", c.Analysis.MaxAttempts)
	}
	if c.Analysis.RecomputeTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_RECOMPUTE_TIMEOUT must be positive, got: %v", c.Analysis.RecomputeTimeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got: %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got: %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL accepts an http(s) origin. The proxy appends request
// paths verbatim, so a path or query on the origin is rejected.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%s scheme must be http or https, got: %q", name, u.Scheme)
	case u.Host == "":
		return fmt.Errorf("%s has no host", name)
	case u.Path != "" && u.Path != "/":
		return fmt.Errorf("%s should be an origin only, remove path %s", name, u.Path)
	case u.RawQuery != "" || u.Fragment != "":
		return fmt.Errorf("%s should be an origin only, remove query and fragment", name)
	}
	return nil
}
