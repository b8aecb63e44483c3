// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package journal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/lebensschule/journal-edge/internal/analysis"
	"github.com/lebensschule/journal-edge/internal/breaker"
	"github.com/lebensschule/journal-edge/internal/models"
)

var _ analysis.Fetcher = (*Client)(nil)

const artifactJSON = `{
  "id": "an-1",
  "entry_id": "e-1",
  "user_id": "u-1",
  "language": "de",
  "emotions": [{"name": "Freude", "intensity": 0.7}],
  "themes": ["Familie"],
  "pillar_scores": {"herz": 8, "geist": 6},
  "reflection": "Ein guter Tag.",
  "recommendations": {"daily": ["Spaziergang"], "weekly": []},
  "signals": {"keywords": [], "phrases": [], "triggers": []},
  "rationale_summary": "Positiv.",
  "risk_flags": {"self_harm": false, "crisis": false, "medical": false, "violence": false}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:        srv.URL,
		APIPrefix:      "/api",
		Timeout:        5 * time.Second,
		RetryBaseDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Options{}); !errors.Is(err, ErrBaseURLRequired) {
		t.Errorf("NewClient() error = %v, want ErrBaseURLRequired", err)
	}
}

func TestNewClientPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base, prefix, want string
	}{
		{"http://backend:8000", "/api", "http://backend:8000/api"},
		{"http://backend:8000/", "api/", "http://backend:8000/api"},
		{"http://backend:8000", "", "http://backend:8000"},
	}
	for _, tt := range tests {
		c, err := NewClient(Options{BaseURL: tt.base, APIPrefix: tt.prefix})
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if c.baseURL != tt.want {
			t.Errorf("baseURL(%q, %q) = %q, want %q", tt.base, tt.prefix, c.baseURL, tt.want)
		}
	}
}

func TestFetchAnalysis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantPresent bool
		wantErr     bool
	}{
		{"ready", http.StatusOK, artifactJSON, true, false},
		{"null body", http.StatusOK, "null", false, false},
		{"empty body", http.StatusOK, "", false, false},
		{"whitespace body", http.StatusOK, "  \n", false, false},
		{"no content", http.StatusNoContent, "", false, false},
		{"invalid artifact", http.StatusOK, `{"id":"x","entry_id":"e","emotions":[{"name":"a","intensity":3}]}`, false, true},
		{"malformed json", http.StatusOK, `{"id":`, false, true},
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/journal/e-1/analysis" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			a, err := c.FetchAnalysis(context.Background(), "e-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("FetchAnalysis() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (a != nil) != tt.wantPresent {
				t.Errorf("FetchAnalysis() artifact = %v, wantPresent %v", a, tt.wantPresent)
			}
			if a != nil && a.PillarScores["herz"] != 8 {
				t.Errorf("PillarScores[herz] = %v, want 8", a.PillarScores["herz"])
			}
		})
	}
}

func TestRecomputeAnalysis(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/journal/e-1/analysis/recompute" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, artifactJSON)
	})

	a, err := c.RecomputeAnalysis(context.Background(), "e-1")
	if err != nil {
		t.Fatalf("RecomputeAnalysis() error = %v", err)
	}
	if a == nil || a.ID != "an-1" {
		t.Errorf("RecomputeAnalysis() = %+v", a)
	}
}

func TestCreateEntry(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/journal" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var req models.CreateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Text != "Heute war gut" || req.MoodScore != 7 || req.EnergyScore != 5 {
			t.Errorf("body = %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"entry":{"id":"e-9","text":"Heute war gut","mood_score":7,"energy_score":5,"created_at":"2026-03-01T10:00:00Z"},"analysis_status":"pending"}`)
	})

	res, err := c.CreateEntry(context.Background(), models.CreateEntryRequest{Text: "Heute war gut", MoodScore: 7, EnergyScore: 5})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if res.Entry.ID != "e-9" || res.AnalysisStatus != models.AnalysisStatusPending {
		t.Errorf("CreateEntry() = %+v", res)
	}
	if res.Entry.CreatedAt.IsZero() {
		t.Error("CreatedAt should be decoded")
	}
}

func TestCreateEntryValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	if _, err := c.CreateEntry(context.Background(), models.CreateEntryRequest{Text: " ", MoodScore: 5, EnergyScore: 5}); err == nil {
		t.Error("CreateEntry() with blank text should fail")
	}
	if hits.Load() != 0 {
		t.Error("invalid request must not reach the backend")
	}
}

func TestGetEntry(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/journal/e-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"id":"e-1","text":"x","mood_score":3,"energy_score":4,"created_at":"2026-03-01T10:00:00Z"}`)
	})

	e, err := c.GetEntry(context.Background(), "e-1")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if e.MoodScore != 3 || e.EnergyScore != 4 {
		t.Errorf("GetEntry() = %+v", e)
	}
}

func TestWithCookieForwardsSession(t *testing.T) {
	t.Parallel()

	var gotCookie atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCookie.Store(r.Header.Get("Cookie"))
		_, _ = io.WriteString(w, "null")
	})

	bound := c.WithCookie("access_token=abc123")
	if _, err := bound.FetchAnalysis(context.Background(), "e-1"); err != nil {
		t.Fatalf("FetchAnalysis() error = %v", err)
	}
	if got := gotCookie.Load(); got != "access_token=abc123" {
		t.Errorf("Cookie = %v, want access_token=abc123", got)
	}

	if _, err := c.FetchAnalysis(context.Background(), "e-1"); err != nil {
		t.Fatalf("FetchAnalysis() error = %v", err)
	}
	if got := gotCookie.Load(); got != "" {
		t.Errorf("original client sent Cookie %v, want none", got)
	}
	if bound.Breaker() != c.Breaker() {
		t.Error("cookie-bound copy should share the breaker")
	}
}

func TestAPIErrorDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		notFound bool
		unauth   bool
	}{
		{"string detail", http.StatusNotFound, `{"detail":"Entry not found"}`, "Entry not found", true, false},
		{"validation detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","mood_score"],"msg":"Input should be less than or equal to 10"}]}`, "mood_score: Input should be less than or equal to 10", false, false},
		{"no detail", http.StatusUnauthorized, `{}`, "Unauthorized", false, true},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Bad Gateway", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetEntry(context.Background(), "e-1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("GetEntry() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("APIError = %d %q, want %d %q", apiErr.StatusCode, apiErr.Message, tt.status, tt.wantMsg)
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound() = %v", IsNotFound(err))
			}
			if IsUnauthorized(err) != tt.unauth {
				t.Errorf("IsUnauthorized() = %v", IsUnauthorized(err))
			}
		})
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, artifactJSON)
	})

	a, err := c.FetchAnalysis(context.Background(), "e-1")
	if err != nil {
		t.Fatalf("FetchAnalysis() error = %v", err)
	}
	if a == nil {
		t.Error("expected artifact after retries")
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	settings := breaker.DefaultSettings("journal-api-test")
	settings.MinRequests = 3
	settings.Timeout = time.Hour

	c, err := NewClient(Options{BaseURL: srv.URL, Breaker: &settings, MaxRetries: -1})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		_, _ = c.GetEntry(context.Background(), "missing")
	}
	if c.Breaker().IsOpen() {
		t.Fatal("404 responses must not open the breaker")
	}

	for i := 0; i < 20 && !c.Breaker().IsOpen(); i++ {
		_, _ = c.GetEntry(context.Background(), "e-1")
	}
	if !c.Breaker().IsOpen() {
		t.Fatalf("breaker state = %s, want open after 5xx responses", c.Breaker().State())
	}

	_, err = c.GetEntry(context.Background(), "e-1")
	if !breaker.IsRejected(err) {
		t.Errorf("GetEntry() error = %v, want breaker rejection", err)
	}
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.FetchAnalysis(ctx, "e-1"); err == nil {
		t.Error("FetchAnalysis() should fail when the context ends")
	}
}

func TestCancelledFetchesDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/slow/") {
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, artifactJSON)
	}))
	defer srv.Close()

	settings := breaker.DefaultSettings("journal-api-cancel-test")
	settings.MinRequests = 3
	settings.Timeout = time.Hour

	shared, err := NewClient(Options{BaseURL: srv.URL, Breaker: &settings, MaxRetries: -1})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(20*time.Millisecond, cancel)
		_, err := shared.WithCookie("access_token=viewer").FetchAnalysis(ctx, "slow")
		timer.Stop()
		cancel()
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("fetch %d error = %v, want context.Canceled", i, err)
		}
	}
	if shared.Breaker().IsOpen() {
		t.Fatalf("breaker state = %s, want closed after cancelled fetches", shared.Breaker().State())
	}

	got, err := shared.WithCookie("access_token=other").FetchAnalysis(context.Background(), "e-1")
	if err != nil {
		t.Fatalf("FetchAnalysis() error = %v", err)
	}
	if got == nil || got.ID != "an-1" {
		t.Errorf("FetchAnalysis() = %+v, want artifact an-1", got)
	}
}
