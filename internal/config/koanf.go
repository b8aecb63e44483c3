// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/journal-edge/config.yaml",
	"/etc/journal-edge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied.
// The upstream URL has no default: it must be supplied.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     60 * time.Second,
			Environment: "production",
		},
		Upstream: UpstreamConfig{
			APIPrefix:    "/api",
			Timeout:      30 * time.Second,
			MaxBodyBytes: 10 << 20,
			RateLimit:    20,
			RateBurst:    40,
		},
		Gate: GateConfig{
			CookieName:        "access_token",
			LoginPath:         "/login",
			ProtectedPrefixes: []string{"/", "/journal", "/report", "/settings"},
			ExemptPaths:       []string{"/login", "/register"},
			SkipPrefixes:      []string{"/_next/static", "/_next/image", "/favicon.ico", "/static/"},
		},
		Analysis: AnalysisConfig{
			PollInterval:     time.Second,
			MaxAttempts:      15,
			RecomputeTimeout: 2 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in layers, later layers winning:
//
//  1. Defaults
//  2. Config file (optional YAML)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// API_BASE_URL -> upstream.base_url, LOG_LEVEL -> logging.level
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// normalize resolves the upstream fallback and trims the trailing slash so
// that origin + request URI never produces "//".
func (c *Config) normalize() {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		c.Upstream.BaseURL = c.Upstream.FallbackBaseURL
	}
	c.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.BaseURL), "/")
	c.Upstream.APIPrefix = strings.TrimRight(c.Upstream.APIPrefix, "/")
}

// findConfigFile returns the first existing config file, or "" if none is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"gate.protected_prefixes",
	"gate.exempt_paths",
	"gate.skip_prefixes",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Upstream
	"api_base_url":             "upstream.base_url",
	"next_public_api_base_url": "upstream.fallback_base_url",
	"upstream_api_prefix":      "upstream.api_prefix",
	"upstream_timeout":         "upstream.timeout",
	"proxy_max_body_bytes":     "upstream.max_body_bytes",
	"upstream_rate_limit":      "upstream.rate_limit",
	"upstream_rate_burst":      "upstream.rate_burst",

	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"static_dir":   "server.static_dir",
	"environment":  "server.environment",

	// Session gate
	"session_cookie_name":     "gate.cookie_name",
	"login_path":              "gate.login_path",
	"gate_protected_prefixes": "gate.protected_prefixes",
	"gate_exempt_paths":       "gate.exempt_paths",
	"gate_skip_prefixes":      "gate.skip_prefixes",

	// Analysis orchestration
	"analysis_poll_interval":     "analysis.poll_interval",
	"analysis_max_attempts":      "analysis.max_attempts",
	"analysis_recompute_timeout": "analysis.recompute_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - API_BASE_URL -> upstream.base_url
//   - ANALYSIS_MAX_ATTEMPTS -> analysis.max_attempts
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
