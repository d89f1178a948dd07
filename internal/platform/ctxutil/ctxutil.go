// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ctxutil carries request-scoped values through [context.Context]: the
correlation id set by the RequestID middleware and the per-request logger set
by StructuredLogger.

Keys are unexported so no other package can read or overwrite them directly.
*/
package ctxutil

import (
	"context"
	"log/slog"
)

type key int

const (
	keyRequestID key = iota
	keyLogger
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID returns the request ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the fallback, or the global default when
// no fallback is given.
func GetLogger(ctx context.Context, fallback ...*slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	if len(fallback) > 0 && fallback[0] != nil {
		return fallback[0]
	}
	return slog.Default()
}

// # Detached Work

// Detach keeps the request id and logger of ctx but drops its cancellation and
// deadline. A document write that has started must finish even when the
// client disconnects.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
