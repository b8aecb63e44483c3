// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package journal is a client for the journal backend API.

Client Features:
  - Session cookie forwarding (WithCookie) so the backend sees the caller
  - Token bucket rate limiting shared by all copies of a client
  - Circuit breaker around every call; 4xx responses do not trip it
  - Automatic HTTP 429 handling with exponential backoff and Retry-After
  - Artifact validation on receipt

Endpoints (relative to the configured API prefix):

	POST /journal                            create entry
	GET  /journal/{id}                       get entry
	GET  /journal/{id}/analysis              fetch analysis (null while computing)
	POST /journal/{id}/analysis/recompute    recompute analysis synchronously

The Client satisfies analysis.Fetcher.
*/
package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/lebensschule/journal-edge/internal/breaker"
	"github.com/lebensschule/journal-edge/internal/config"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
	"github.com/lebensschule/journal-edge/internal/models"
)

// BreakerName labels the client's circuit breaker in metrics.
const BreakerName = "journal-api"

// maxResponseSize bounds how much of a backend response is read.
const maxResponseSize = 4 << 20

// Options configures a Client.
type Options struct {
	// BaseURL is the backend origin, e.g. http://backend:8000.
	BaseURL string

	// APIPrefix is prepended to every endpoint path, e.g. /api.
	APIPrefix string

	Timeout   time.Duration
	RateLimit float64
	RateBurst int

	// MaxRetries bounds retries after HTTP 429. Zero means 3, negative
	// disables retries.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// HTTPClient overrides the default client. Its Timeout is left as is.
	HTTPClient *http.Client

	// Breaker overrides the default circuit breaker settings.
	Breaker *breaker.Settings
}

// OptionsFromConfig builds client options from the upstream configuration.
func OptionsFromConfig(cfg config.UpstreamConfig) Options {
	return Options{
		BaseURL:   cfg.BaseURL,
		APIPrefix: cfg.APIPrefix,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}
}

// Client talks to the journal backend. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	breaker        *breaker.Breaker
	maxRetries     int
	retryBaseDelay time.Duration

	// cookie is the raw Cookie header forwarded with every request.
	cookie string
}

// NewClient creates a client. BaseURL is required.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("journal: invalid base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}

	settings := breaker.DefaultSettings(BreakerName)
	if opts.Breaker != nil {
		settings = *opts.Breaker
	}
	settings.IsSuccessful = isBreakerSuccess

	maxRetries := opts.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = 3
	case maxRetries < 0:
		maxRetries = 0
	}
	retryDelay := opts.RetryBaseDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	if prefix := strings.Trim(opts.APIPrefix, "/"); prefix != "" {
		base += "/" + prefix
	}

	return &Client{
		baseURL:        base,
		httpClient:     httpClient,
		limiter:        rate.NewLimiter(limit, burst),
		breaker:        breaker.New(settings),
		maxRetries:     maxRetries,
		retryBaseDelay: retryDelay,
	}, nil
}

// isBreakerSuccess treats backend client errors and caller cancellation as
// healthy responses. The breaker is shared by every WithCookie copy.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsClientError()
}

// WithCookie returns a copy of the client that forwards cookie as the
// Cookie header. The copy shares the limiter and breaker.
func (c *Client) WithCookie(cookie string) *Client {
	cp := *c
	cp.cookie = cookie
	return &cp
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *breaker.Breaker {
	return c.breaker
}

// CreateEntry stores a new journal entry.
func (c *Client) CreateEntry(ctx context.Context, req models.CreateEntryRequest) (*models.CreateEntryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	var out models.CreateEntryResult
	present, err := c.call(ctx, "create_entry", http.MethodPost, "/journal", req, &out)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	if !present {
		return nil, errors.New("create entry: empty response")
	}
	return &out, nil
}

// GetEntry fetches a journal entry by id.
func (c *Client) GetEntry(ctx context.Context, entryID string) (*models.JournalEntry, error) {
	var out models.JournalEntry
	present, err := c.call(ctx, "get_entry", http.MethodGet, entryPath(entryID), nil, &out)
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", entryID, err)
	}
	if !present {
		return nil, fmt.Errorf("get entry %s: empty response", entryID)
	}
	return &out, nil
}

// FetchAnalysis returns the entry's analysis, or nil when the backend has
// not produced it yet.
func (c *Client) FetchAnalysis(ctx context.Context, entryID string) (*models.Artifact, error) {
	return c.artifact(ctx, "fetch_analysis", http.MethodGet, entryPath(entryID)+"/analysis")
}

// RecomputeAnalysis asks the backend to recompute the analysis and returns
// the new artifact. A nil artifact means the backend is still computing.
func (c *Client) RecomputeAnalysis(ctx context.Context, entryID string) (*models.Artifact, error) {
	return c.artifact(ctx, "recompute_analysis", http.MethodPost, entryPath(entryID)+"/analysis/recompute")
}

func (c *Client) artifact(ctx context.Context, op, method, path string) (*models.Artifact, error) {
	var out models.Artifact
	present, err := c.call(ctx, op, method, path, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !present {
		return nil, nil
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid artifact: %w", op, err)
	}
	return &out, nil
}

func entryPath(entryID string) string {
	return "/journal/" + url.PathEscape(entryID)
}

// call performs one API call and decodes the response into out. It reports
// whether the backend returned a body; 204, an empty body and a JSON null
// all count as absent.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) (bool, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	start := time.Now()
	body, err := breaker.Do(c.breaker, func() ([]byte, error) {
		return c.doWithRetry(ctx, method, path, payload)
	})
	c.record(op, start, err)

	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("operation", op).Str("path", path).Msg("Backend call failed")
		return false, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func (c *Client) record(op string, start time.Time, err error) {
	status := "200"
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		status = strconv.Itoa(apiErr.StatusCode)
	default:
		status = "error"
	}
	metrics.RecordBackendRequest(op, status, time.Since(start))
}

// doWithRetry sends the request, retrying HTTP 429 with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, retryAfter, err := c.do(ctx, method, path, payload)
		if err == nil || retryAfter < 0 || attempt >= c.maxRetries {
			return body, err
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter > 0 {
			delay = retryAfter
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// do sends one request. retryAfter is negative unless the backend answered
// 429, in which case it holds the Retry-After delay or zero.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (body []byte, retryAfter time.Duration, err error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, -1, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, -1, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, -1, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorDetail(resp.StatusCode, body)}
	if resp.StatusCode == http.StatusTooManyRequests {
		var wait time.Duration
		if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, apiErr
	}
	return nil, -1, apiErr
}
