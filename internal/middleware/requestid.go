// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/lebensschule/journal-edge/internal/logging"
)

// RequestIDHeader carries the request id in both directions. The proxy
// forwards it to the backend with the other request headers.
const RequestIDHeader = "X-Request-ID"

// validRequestID limits inbound ids to something safe to log and echo.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID assigns every request an id, echoes it in the response and
// places request and correlation ids on the logging context.
//
// An inbound X-Request-ID is reused when well formed. The header is then
// set on the request too, so relayed requests carry the same id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(requestID) {
			requestID = uuid.New().String()
		}
		r.Header.Set(RequestIDHeader, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
