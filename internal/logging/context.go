// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	correlationIDKey
	entryIDKey
	loggerKey
)

// ContextWithRequestID stores the id of the inbound HTTP request.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithNewCorrelationID stores a fresh 8 character correlation id.
// Request ids may come from the client; correlation ids never do.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return context.WithValue(ctx, correlationIDKey, uuid.NewString()[:8])
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextWithEntryID marks ctx as working on one journal entry.
func ContextWithEntryID(ctx context.Context, entryID string) context.Context {
	return context.WithValue(ctx, entryIDKey, entryID)
}

// ContextWithLogger makes Ctx derive from l instead of the global logger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func ContextWithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Ctx returns a logger carrying the request, correlation and entry ids
// found in ctx.
//
//	logging.Ctx(r.Context()).Warn().Msg("Upstream circuit open")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

// CtxWith is Ctx for callers that add fields of their own.
func CtxWith(ctx context.Context) zerolog.Context {
	l, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		l = current()
	}
	c := l.With()

	if id := RequestIDFromContext(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		c = c.Str("correlation_id", id)
	}
	if id, _ := ctx.Value(entryIDKey).(string); id != "" {
		c = c.Str("entry_id", id)
	}
	return c
}
