// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "01J8Z")
	assert.Equal(t, "01J8Z", ctxutil.GetRequestID(ctx))
}

/*
TestGetLogger resolves the context logger, then the fallback, then the default.
*/
func TestGetLogger(t *testing.T) {
	scoped := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewJSONHandler(io.Discard, nil))
	withLogger := ctxutil.WithLogger(context.Background(), scoped)

	tests := []struct {
		name     string
		ctx      context.Context
		fallback []*slog.Logger
		want     *slog.Logger
	}{
		{"scoped", withLogger, nil, scoped},
		{"scoped_beats_fallback", withLogger, []*slog.Logger{fallback}, scoped},
		{"fallback", context.Background(), []*slog.Logger{fallback}, fallback},
		{"nil_fallback", context.Background(), []*slog.Logger{nil}, slog.Default()},
		{"default", context.Background(), nil, slog.Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, ctxutil.GetLogger(tt.ctx, tt.fallback...))
		})
	}
}

func TestDetach(t *testing.T) {
	ctx, cancel := context.WithCancel(ctxutil.WithRequestID(context.Background(), "req-1"))
	detached := ctxutil.Detach(ctx)
	cancel()

	require.Error(t, ctx.Err())
	assert.NoError(t, detached.Err())
	assert.Equal(t, "req-1", ctxutil.GetRequestID(detached))
}
