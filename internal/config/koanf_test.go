// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// withEnv replaces the process environment for the duration of the test.
func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	saved := os.Environ()
	os.Clearenv()
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			if k, v, ok := strings.Cut(kv, "="); ok {
				os.Setenv(k, v)
			}
		}
	})

	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Upstream.BaseURL != "" {
		t.Errorf("Upstream.BaseURL should be empty by default, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIPrefix != "/api" {
		t.Errorf("Upstream.APIPrefix = %q, want /api", cfg.Upstream.APIPrefix)
	}
	if cfg.Gate.CookieName != "access_token" {
		t.Errorf("Gate.CookieName = %q, want access_token", cfg.Gate.CookieName)
	}
	if cfg.Gate.LoginPath != "/login" {
		t.Errorf("Gate.LoginPath = %q, want /login", cfg.Gate.LoginPath)
	}
	wantProtected := []string{"/", "/journal", "/report", "/settings"}
	if !reflect.DeepEqual(cfg.Gate.ProtectedPrefixes, wantProtected) {
		t.Errorf("Gate.ProtectedPrefixes = %v, want %v", cfg.Gate.ProtectedPrefixes, wantProtected)
	}
	if cfg.Analysis.PollInterval != time.Second {
		t.Errorf("Analysis.PollInterval = %v, want 1s", cfg.Analysis.PollInterval)
	}
	if cfg.Analysis.MaxAttempts != 15 {
		t.Errorf("Analysis.MaxAttempts = %d, want 15", cfg.Analysis.MaxAttempts)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"API_BASE_URL", "upstream.base_url"},
		{"NEXT_PUBLIC_API_BASE_URL", "upstream.fallback_base_url"},
		{"ANALYSIS_MAX_ATTEMPTS", "analysis.max_attempts"},
		{"ANALYSIS_POLL_INTERVAL", "analysis.poll_interval"},
		{"SESSION_COOKIE_NAME", "gate.cookie_name"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	withEnv(t, map[string]string{
		"API_BASE_URL":            "http://backend.local:8000/",
		"ANALYSIS_MAX_ATTEMPTS":   "5",
		"ANALYSIS_POLL_INTERVAL":  "250ms",
		"GATE_PROTECTED_PREFIXES": "/journal, /report",
		"HTTP_PORT":               "9000",
		"LOG_LEVEL":               "debug",
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "http://backend.local:8000" {
		t.Errorf("Upstream.BaseURL = %q, want trailing slash trimmed", cfg.Upstream.BaseURL)
	}
	if cfg.Analysis.MaxAttempts != 5 {
		t.Errorf("Analysis.MaxAttempts = %d, want 5", cfg.Analysis.MaxAttempts)
	}
	if cfg.Analysis.PollInterval != 250*time.Millisecond {
		t.Errorf("Analysis.PollInterval = %v, want 250ms", cfg.Analysis.PollInterval)
	}
	if !reflect.DeepEqual(cfg.Gate.ProtectedPrefixes, []string{"/journal", "/report"}) {
		t.Errorf("Gate.ProtectedPrefixes = %v", cfg.Gate.ProtectedPrefixes)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Unset values keep their defaults
	if cfg.Gate.CookieName != "access_token" {
		t.Errorf("Gate.CookieName = %q, want access_token (default)", cfg.Gate.CookieName)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadWithKoanfFallbackURL(t *testing.T) {
	withEnv(t, map[string]string{
		"NEXT_PUBLIC_API_BASE_URL": "https://api.example.com",
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Upstream.BaseURL != "https://api.example.com" {
		t.Errorf("Upstream.BaseURL = %q, want fallback value", cfg.Upstream.BaseURL)
	}
}

func TestLoadWithKoanfPrimaryURLWinsOverFallback(t *testing.T) {
	withEnv(t, map[string]string{
		"API_BASE_URL":             "http://primary:8000",
		"NEXT_PUBLIC_API_BASE_URL": "http://fallback:8000",
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Upstream.BaseURL != "http://primary:8000" {
		t.Errorf("Upstream.BaseURL = %q, want primary", cfg.Upstream.BaseURL)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
upstream:
  base_url: http://file-backend:8000
  api_prefix: /v1
gate:
  login_path: /signin
analysis:
  max_attempts: 30
server:
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	withEnv(t, map[string]string{
		ConfigPathEnvVar: path,
		"HTTP_PORT":      "9090", // env overrides file
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "http://file-backend:8000" {
		t.Errorf("Upstream.BaseURL = %q, want value from file", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIPrefix != "/v1" {
		t.Errorf("Upstream.APIPrefix = %q, want /v1", cfg.Upstream.APIPrefix)
	}
	if cfg.Gate.LoginPath != "/signin" {
		t.Errorf("Gate.LoginPath = %q, want /signin", cfg.Gate.LoginPath)
	}
	if cfg.Analysis.MaxAttempts != 30 {
		t.Errorf("Analysis.MaxAttempts = %d, want 30", cfg.Analysis.MaxAttempts)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 (env overrides file)", cfg.Server.Port)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
	}{
		{
			name:    "missing upstream URL",
			envVars: map[string]string{},
			wantErr: "API_BASE_URL is required",
		},
		{
			name:    "upstream URL with path",
			envVars: map[string]string{"API_BASE_URL": "http://backend:8000/api"},
			wantErr: "remove path",
		},
		{
			name:    "upstream URL with unsupported scheme",
			envVars: map[string]string{"API_BASE_URL": "ftp://backend"},
			wantErr: "scheme must be http or https",
		},
		{
			name: "zero max attempts",
			envVars: map[string]string{
				"API_BASE_URL":          "http://backend:8000",
				"ANALYSIS_MAX_ATTEMPTS": "0",
			},
			wantErr: "ANALYSIS_MAX_ATTEMPTS",
		},
		{
			name: "relative login path",
			envVars: map[string]string{
				"API_BASE_URL": "http://backend:8000",
				"LOGIN_PATH":   "login",
			},
			wantErr: "LOGIN_PATH",
		},
		{
			name: "invalid log format",
			envVars: map[string]string{
				"API_BASE_URL": "http://backend:8000",
				"LOG_FORMAT":   "xml",
			},
			wantErr: "LOG_FORMAT",
		},
		{
			name:    "valid minimal configuration",
			envVars: map[string]string{"API_BASE_URL": "http://backend:8000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.envVars)

			_, err := LoadWithKoanf()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadWithKoanf() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadMissingUpstreamIsSentinel(t *testing.T) {
	withEnv(t, map[string]string{})

	_, err := Load()
	if !errors.Is(err, ErrUpstreamURLRequired) {
		t.Errorf("Load() error = %v, want ErrUpstreamURLRequired", err)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8081

	if got := cfg.ListenAddr(); got != "127.0.0.1:8081" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:8081", got)
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("no origins configured should not warn")
	}
	cfg.Security.CORSOrigins = []string{"https://app.example.com", "*"}
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard origin should warn")
	}
}
