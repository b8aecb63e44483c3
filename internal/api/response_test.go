// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/lebensschule/journal-edge/internal/logging"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return response
}

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).Success(map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	response := decodeEnvelope(t, w)
	if !response.Success {
		t.Error("Success = false, want true")
	}
	if response.Error != nil {
		t.Errorf("Error = %+v, want nil", response.Error)
	}
	if response.Meta == nil || response.Meta.Timestamp.IsZero() {
		t.Error("Meta.Timestamp should be set")
	}
}

func TestResponseWriter_SuccessWithStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).SuccessWithStatus(http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	response := decodeEnvelope(t, w)
	if response.Success {
		t.Error("Success = true for a 503 status")
	}
	if response.Data == nil {
		t.Error("Data should be kept on a non-2xx status")
	}
}

func TestResponseWriter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"not found", func(rw *ResponseWriter) { rw.NotFound("missing") }, http.StatusNotFound, ErrCodeNotFound},
		{"method not allowed", func(rw *ResponseWriter) { rw.MethodNotAllowed() }, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"too many requests", func(rw *ResponseWriter) { rw.TooManyRequests("slow down") }, http.StatusTooManyRequests, ErrCodeTooManyRequests},
		{"bad gateway", func(rw *ResponseWriter) {
			rw.Error(http.StatusBadGateway, ErrCodeExternalServiceFail, "External service unavailable: backend")
		}, http.StatusBadGateway, ErrCodeExternalServiceFail},
		{"unauthorized", func(rw *ResponseWriter) {
			rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Session cookie required")
		}, http.StatusUnauthorized, ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			tt.write(NewResponseWriter(w, r))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			response := decodeEnvelope(t, w)
			if response.Success {
				t.Error("Success = true, want false")
			}
			if response.Error == nil || response.Error.Code != tt.wantCode {
				t.Errorf("Error = %+v, want code %s", response.Error, tt.wantCode)
			}
		})
	}
}

func TestWriteErrorCarriesRequestID(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/journal", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-123"))

	WriteError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "too large")

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
	response := decodeEnvelope(t, w)
	if response.Error == nil {
		t.Fatal("Error = nil")
	}
	if response.Error.RequestID != "req-123" {
		t.Errorf("Error.RequestID = %q, want req-123", response.Error.RequestID)
	}
	if response.Meta.RequestID != "req-123" {
		t.Errorf("Meta.RequestID = %q, want req-123", response.Meta.RequestID)
	}
}
