// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package logging

import (
	"net/http"
	"strings"
)

// sensitiveHeaders are masked by SanitizeHeaders.
var sensitiveHeaders = map[string]bool{
	"Cookie":              true,
	"Set-Cookie":          true,
	"Authorization":       true,
	"Proxy-Authorization": true,
}

// SanitizeToken masks a secret, keeping 4 characters at each end.
// Example: "abcd1234efgh5678" -> "abcd...5678"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeHeaders flattens h into a map suitable for a log field, masking
// session-bearing headers. The input is not modified.
func SanitizeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		canonical := http.CanonicalHeaderKey(name)
		if sensitiveHeaders[canonical] {
			masked := make([]string, len(values))
			for i, v := range values {
				masked[i] = SanitizeToken(v)
			}
			out[canonical] = strings.Join(masked, ", ")
			continue
		}
		out[canonical] = strings.Join(values, ", ")
	}
	return out
}
