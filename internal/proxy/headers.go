// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package proxy

import (
	"net/http"
	"strings"
)

// hopByHop headers apply to a single connection and are never relayed.
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// requestDenied are dropped from inbound requests in addition to hop-by-hop
// headers. The upstream host is derived from the target URL. Accept-Encoding
// is dropped so the upstream answers with an identity body.
var requestDenied = []string{"Host", "Accept-Encoding"}

// responseDenied are dropped from upstream responses. The outer server
// recomputes both for the body it actually writes.
var responseDenied = []string{"Content-Encoding", "Content-Length"}

// FilterRequestHeaders returns a copy of h suitable for sending upstream.
// Cookies and authorization headers are kept.
func FilterRequestHeaders(h http.Header) http.Header {
	return filter(h, requestDenied)
}

// FilterResponseHeaders returns a copy of h suitable for relaying to the
// caller. Set-Cookie is kept.
func FilterResponseHeaders(h http.Header) http.Header {
	return filter(h, responseDenied)
}

func filter(h http.Header, denied []string) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}

	// Headers named in Connection are hop-by-hop for this message.
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out.Del(name)
			}
		}
	}
	for _, name := range hopByHop {
		out.Del(name)
	}
	for _, name := range denied {
		out.Del(name)
	}
	return out
}
