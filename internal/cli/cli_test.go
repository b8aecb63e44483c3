// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lebensschule/journal-edge/internal/models"
)

const artifactJSON = `{
  "id": "an-1",
  "entry_id": "e-1",
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

const entryJSON = `{
  "entry": {"id": "e-1", "text": "Langer Spaziergang", "mood_score": 7, "energy_score": 6, "created_at": "2026-03-01T08:00:00Z"},
  "analysis_status": "pending"
}`

// fakeBackend serves the journal API endpoints journalctl uses.
type fakeBackend struct {
	mu sync.Mutex

	// readyAfter is the number of absent fetches before the artifact
	// appears. Negative never delivers.
	readyAfter int
	fetches    int

	recomputeStatus int
	recomputeBody   string
	recomputes      int

	created []models.CreateEntryRequest
	cookies []string
}

func newFakeBackend(t *testing.T, b *fakeBackend) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return srv.URL
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cookies = append(b.cookies, r.Header.Get("Cookie"))
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/journal":
		var req models.CreateEntryRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		b.created = append(b.created, req)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, entryJSON)

	case r.Method == http.MethodGet && r.URL.Path == "/api/journal/e-1/analysis":
		b.fetches++
		if b.readyAfter >= 0 && b.fetches > b.readyAfter {
			_, _ = io.WriteString(w, artifactJSON)
			return
		}
		_, _ = io.WriteString(w, "null")

	case r.Method == http.MethodPost && r.URL.Path == "/api/journal/e-1/analysis/recompute":
		b.recomputes++
		status := b.recomputeStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, b.recomputeBody)

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not Found"}`)
	}
}

func (b *fakeBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

// runCLI executes journalctl with args and returns its standard output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvSession, "")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// jsonLines decodes newline-delimited CLI responses.
func jsonLines(t *testing.T, out string) []CLIResponse {
	t.Helper()
	var lines []CLIResponse
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "line %q", line)
		lines = append(lines, resp)
	}
	return lines
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "journalctl", cmd.Use)

	for _, name := range []string{"create", "watch", "recompute"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		flag      string
		shorthand string
		def       string
	}{
		{"verbose", "v", "false"},
		{"format", "", "text"},
		{"base-url", "", ""},
		{"prefix", "", "/api"},
		{"cookie", "", ""},
		{"interval", "", "1s"},
		{"max-attempts", "", "15"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.PersistentFlags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
			assert.Equal(t, tt.shorthand, f.Shorthand)
		})
	}
}

func TestFlagValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"invalid format", []string{"watch", "e-1", "--base-url", "http://x", "--format", "xml"}, "invalid format"},
		{"missing base url", []string{"watch", "e-1"}, EnvBaseURL},
		{"zero attempts", []string{"watch", "e-1", "--base-url", "http://x", "--max-attempts", "0"}, "--max-attempts"},
		{"zero interval", []string{"watch", "e-1", "--base-url", "http://x", "--interval", "0s"}, "--interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestWatchImmediateReady(t *testing.T) {
	backend := &fakeBackend{readyAfter: 0}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "", "watch", "e-1", "--base-url", url, "--cookie", "tok")
	require.NoError(t, err)

	assert.Contains(t, out, "state: fetching")
	assert.Contains(t, out, "state: ready")
	assert.NotContains(t, out, "pending")
	assert.Contains(t, out, "analysis an-1 for entry e-1")
	assert.Contains(t, out, "Freude 0.70")
	assert.Less(t, strings.Index(out, "geist"), strings.Index(out, "herz"), "pillars should be sorted")
	assert.Equal(t, 1, backend.fetchCount())
	assert.Equal(t, []string{"access_token=tok"}, backend.cookies)
}

func TestWatchPollsUntilReady(t *testing.T) {
	backend := &fakeBackend{readyAfter: 2}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "", "watch", "e-1", "--base-url", url, "--interval", "5ms")
	require.NoError(t, err)

	assert.Contains(t, out, "state: pending(0/15)")
	assert.Contains(t, out, "state: pending(1/15)")
	assert.Contains(t, out, "state: ready")
	assert.Equal(t, 3, backend.fetchCount())
}

func TestWatchExhaustedExitsWithFailure(t *testing.T) {
	backend := &fakeBackend{readyAfter: -1}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "", "watch", "e-1", "--base-url", url, "--interval", "1ms", "--max-attempts", "3")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "exhausted")
	assert.Contains(t, out, "state: failed(exhausted)")
	assert.Equal(t, 4, backend.fetchCount(), "initial fetch plus three attempts")
}

func TestWatchRawCookieHeader(t *testing.T) {
	backend := &fakeBackend{readyAfter: 0}
	url := newFakeBackend(t, backend)

	_, err := runCLI(t, "", "watch", "e-1", "--base-url", url, "--cookie", "sid=abc; theme=dark")
	require.NoError(t, err)
	assert.Equal(t, []string{"sid=abc; theme=dark"}, backend.cookies)
}

func TestBaseURLAndSessionFromEnvironment(t *testing.T) {
	backend := &fakeBackend{readyAfter: 0}
	url := newFakeBackend(t, backend)

	cmd := NewRootCommand()
	t.Setenv(EnvBaseURL, url)
	t.Setenv(EnvSession, "env-token")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"watch", "e-1"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"access_token=env-token"}, backend.cookies)
}

func TestCreateAndWatchJSON(t *testing.T) {
	backend := &fakeBackend{readyAfter: 1}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "",
		"create", "--text", "Langer Spaziergang", "--mood", "7", "--energy", "6", "--watch",
		"--base-url", url, "--interval", "5ms", "--format", "json")
	require.NoError(t, err)

	lines := jsonLines(t, out)
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "entry", lines[0].Kind)
	assert.Equal(t, "state", lines[1].Kind)
	assert.Equal(t, "artifact", lines[len(lines)-1].Kind)
	for _, l := range lines {
		assert.Equal(t, "ok", l.Status)
	}

	require.Len(t, backend.created, 1)
	assert.Equal(t, models.CreateEntryRequest{Text: "Langer Spaziergang", MoodScore: 7, EnergyScore: 6}, backend.created[0])
}

func TestCreateFromStdin(t *testing.T) {
	backend := &fakeBackend{readyAfter: 0}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "  Text aus stdin \n", "create", "--text", "-", "--base-url", url)
	require.NoError(t, err)

	assert.Contains(t, out, "entry e-1 created (analysis pending)")
	require.Len(t, backend.created, 1)
	assert.Equal(t, "Text aus stdin", backend.created[0].Text)
	assert.Equal(t, 0, backend.fetchCount(), "no watch without --watch")
}

func TestCreateRejectsInvalidEntry(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"blank text", []string{"--text", "   "}},
		{"mood out of range", []string{"--text", "ok", "--mood", "11"}},
		{"energy out of range", []string{"--text", "ok", "--energy", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			url := newFakeBackend(t, backend)

			args := append([]string{"create", "--base-url", url}, tt.args...)
			_, err := runCLI(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Empty(t, backend.created, "invalid entries must not reach the backend")
		})
	}
}

func TestRecomputeReturnsNewArtifact(t *testing.T) {
	backend := &fakeBackend{recomputeBody: artifactJSON}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "", "recompute", "e-1", "--base-url", url)
	require.NoError(t, err)

	assert.Contains(t, out, "state: recomputing")
	assert.Contains(t, out, "analysis an-1 for entry e-1")
	assert.Equal(t, 1, backend.recomputes)
	assert.Equal(t, 0, backend.fetchCount())
}

func TestRecomputeAcceptedThenPolled(t *testing.T) {
	backend := &fakeBackend{recomputeStatus: http.StatusAccepted, readyAfter: 1}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "", "recompute", "e-1", "--base-url", url, "--interval", "5ms")
	require.NoError(t, err)

	assert.Contains(t, out, "state: recomputing")
	assert.Contains(t, out, "state: pending(0/15)")
	assert.Contains(t, out, "state: ready")
	assert.Equal(t, 2, backend.fetchCount())
}

func TestRecomputeFailureRestoresAndExits(t *testing.T) {
	backend := &fakeBackend{recomputeStatus: http.StatusNotFound, recomputeBody: `{"detail":"Entry not found"}`}
	url := newFakeBackend(t, backend)

	out, err := runCLI(t, "", "recompute", "e-1", "--base-url", url)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "Entry not found")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "state: idle", lines[len(lines)-1], "prior state restored")
}
