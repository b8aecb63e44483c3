// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

/*
Package gate redirects unauthenticated page requests to the login page.

The gate only checks that the session cookie is present. Validating the
token is left to the backend, which sees the same cookie through the
proxy.

Classification order:
  - Skip prefixes (static assets, framework internals) are never classified
  - Exempt paths (login, register) are always allowed
  - A path is protected when it equals a protected prefix or lies below it
  - Protected paths without the cookie are redirected to the login path

A protected prefix of "/" protects only the root page itself.
*/
package gate

import (
	"net/http"
	"strings"

	"github.com/lebensschule/journal-edge/internal/config"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
)

// Decision is the outcome of classifying a request path.
type Decision int

const (
	// Skip means the path is outside the gate entirely.
	Skip Decision = iota
	// Allow lets the request through.
	Allow
	// Redirect sends the request to the login path.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Gate holds the path tables. It is immutable after New.
type Gate struct {
	cookieName string
	loginPath  string
	protected  []string
	exempt     map[string]struct{}
	skip       []string
}

// New builds a gate from configuration.
func New(cfg config.GateConfig) *Gate {
	g := &Gate{
		cookieName: cfg.CookieName,
		loginPath:  cfg.LoginPath,
		protected:  append([]string(nil), cfg.ProtectedPrefixes...),
		exempt:     make(map[string]struct{}, len(cfg.ExemptPaths)+1),
		skip:       append([]string(nil), cfg.SkipPrefixes...),
	}
	for _, p := range cfg.ExemptPaths {
		g.exempt[p] = struct{}{}
	}
	// The login page must never redirect to itself.
	g.exempt[cfg.LoginPath] = struct{}{}
	return g
}

// CookieName returns the session cookie the gate checks for.
func (g *Gate) CookieName() string {
	return g.cookieName
}

// Classify decides what happens to a request for path.
func (g *Gate) Classify(path string, hasCookie bool) Decision {
	for _, p := range g.skip {
		if strings.HasPrefix(path, p) {
			return Skip
		}
	}
	if _, ok := g.exempt[path]; ok {
		return Allow
	}
	if !g.isProtected(path) || hasCookie {
		return Allow
	}
	return Redirect
}

func (g *Gate) isProtected(path string) bool {
	for _, p := range g.protected {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// HasSession reports whether r carries a non-empty session cookie.
func (g *Gate) HasSession(r *http.Request) bool {
	c, err := r.Cookie(g.cookieName)
	return err == nil && c.Value != ""
}

// Middleware applies the gate to every request. Redirects keep the
// original query string.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Classify(r.URL.Path, g.HasSession(r))
		metrics.RecordGateDecision(decision.String())

		if decision != Redirect {
			next.ServeHTTP(w, r)
			return
		}

		target := g.loginPath
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		logging.Ctx(r.Context()).Debug().
			Str("path", r.URL.Path).
			Str("location", target).
			Msg("No session cookie, redirecting to login")
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	})
}
