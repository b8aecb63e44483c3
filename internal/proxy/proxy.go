// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package proxy relays API requests from the edge to the backend origin.

The upstream URL is the configured origin followed by the inbound path and
query, unchanged. Request bodies are relayed byte for byte, GET and HEAD
carry none. Redirects are not followed; the upstream's 3xx and Location
reach the caller as sent. Upstream status codes and bodies are relayed
untouched, including errors.

The proxy answers by itself only when it cannot relay:
  - 413 when the request body exceeds the configured limit
  - 502 on a transport failure
  - 503 while the circuit breaker is open

Only transport failures count against the breaker.
*/
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lebensschule/journal-edge/internal/breaker"
	"github.com/lebensschule/journal-edge/internal/config"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
)

// ErrUpstreamNotConfigured is returned by New when no origin is set.
var ErrUpstreamNotConfigured = errors.New("proxy: upstream base URL is not configured")

// BreakerName labels the proxy's circuit breaker in metrics.
const BreakerName = "edge-proxy"

// Error codes written by the proxy itself.
const (
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeBadGateway         = "EXTERNAL_SERVICE_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorWriter writes an error the proxy produced itself. The API layer
// supplies its JSON envelope writer.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Config configures a Proxy.
type Config struct {
	// BaseURL is the upstream origin. Required.
	BaseURL string

	Timeout      time.Duration
	MaxBodyBytes int64

	// Transport overrides the upstream round tripper.
	Transport http.RoundTripper

	// Breaker overrides the default circuit breaker settings.
	Breaker *breaker.Settings

	// WriteError writes proxy-generated errors. Defaults to plain text.
	WriteError ErrorWriter
}

// ConfigFromUpstream builds a proxy configuration from the upstream settings.
func ConfigFromUpstream(cfg config.UpstreamConfig) Config {
	return Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Request is an inbound request reduced to what is relayed.
type Request struct {
	Method string

	// RequestURI is the escaped path and query, e.g. /api/journal?limit=5.
	RequestURI string

	Header http.Header
	Body   []byte
}

// Response is an upstream response ready to be relayed. The caller must
// close Body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Proxy relays requests to one upstream origin. It is safe for
// concurrent use.
type Proxy struct {
	baseURL      string
	client       *http.Client
	breaker      *breaker.Breaker
	maxBodyBytes int64
	writeError   ErrorWriter
}

// New creates a proxy. A missing origin is a configuration error.
func New(cfg Config) (*Proxy, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrUpstreamNotConfigured
	}

	transport := cfg.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		// Relay the upstream bytes as encoded.
		t.DisableCompression = true
		transport = t
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := breaker.DefaultSettings(BreakerName)
	if cfg.Breaker != nil {
		settings = *cfg.Breaker
	}
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}

	writeError := cfg.WriteError
	if writeError == nil {
		writeError = plainError
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	return &Proxy{
		baseURL: base,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		breaker:      breaker.New(settings),
		maxBodyBytes: maxBody,
		writeError:   writeError,
	}, nil
}

// Breaker exposes the proxy's circuit breaker for health reporting.
func (p *Proxy) Breaker() *breaker.Breaker {
	return p.breaker
}

// Forward sends req upstream and returns the filtered response.
func (p *Proxy) Forward(ctx context.Context, req *Request) (*Response, error) {
	uri := req.RequestURI
	if uri == "" {
		uri = "/"
	}

	var body io.Reader
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		body = bytes.NewReader(req.Body)
	}

	upReq, err := http.NewRequestWithContext(ctx, req.Method, p.baseURL+uri, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	upReq.Header = FilterRequestHeaders(req.Header)

	resp, err := breaker.Do(p.breaker, func() (*http.Response, error) {
		return p.client.Do(upReq)
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     FilterResponseHeaders(resp.Header),
		Body:       resp.Body,
	}, nil
}

// ServeHTTP relays r upstream and writes the upstream response to w.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.Ctx(r.Context())

	var payload []byte
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		var err error
		payload, err = io.ReadAll(http.MaxBytesReader(w, r.Body, p.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				metrics.RecordProxyError("body_too_large")
				p.writeError(w, r, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
					fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
				return
			}
			metrics.RecordProxyError("canceled")
			log.Debug().Err(err).Msg("Failed to read request body")
			return
		}
	}

	resp, err := p.Forward(r.Context(), &Request{
		Method:     r.Method,
		RequestURI: r.URL.RequestURI(),
		Header:     r.Header,
		Body:       payload,
	})
	if err != nil {
		p.handleError(w, r, err)
		return
	}
	defer resp.Body.Close()

	dst := w.Header()
	for k, vs := range resp.Header {
		dst[k] = vs
	}
	w.WriteHeader(resp.StatusCode)
	metrics.RecordProxyRequest(r.Method, resp.StatusCode, time.Since(start))

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(flushWriter{w}, resp.Body); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Relaying upstream body interrupted")
	}
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.Ctx(r.Context())

	switch {
	case breaker.IsRejected(err):
		metrics.RecordProxyError("circuit_open")
		log.Warn().Str("path", r.URL.Path).Msg("Upstream circuit open, rejecting request")
		p.writeError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable,
			"Backend temporarily unavailable")
	case errors.Is(err, context.Canceled):
		metrics.RecordProxyError("canceled")
		log.Debug().Str("path", r.URL.Path).Msg("Client went away before upstream answered")
	default:
		metrics.RecordProxyError("transport")
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).
			Interface("headers", logging.SanitizeHeaders(r.Header)).
			Msg("Upstream request failed")
		p.writeError(w, r, http.StatusBadGateway, CodeBadGateway, "External service unavailable: backend")
	}
}

func plainError(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
	http.Error(w, message, status)
}

// flushWriter flushes after every write so streamed upstream responses
// reach the caller without buffering.
type flushWriter struct {
	w http.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if fl, ok := f.w.(http.Flusher); ok {
		fl.Flush()
	}
	return n, err
}
