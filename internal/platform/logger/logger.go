// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package logger builds the process-wide structured logger.

Every record is JSON on stdout. When a log file is configured, records are
also written to a size-rotated file so that a small host keeps a bounded
history without an external collector.
*/
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	App   string
	Debug bool
	// File enables the rotated file sink when non-empty.
	File string
	// Stdout overrides the console sink, mainly for tests.
	Stdout io.Writer
}

// Rotation limits for the optional file sink.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// New returns a configured logger and a closer for the file sink.
// The closer is a no-op when no file is configured.
func New(opts Options) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	var handler slog.Handler = slog.NewJSONHandler(stdout, handlerOpts)
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		handler = fanout{handler, slog.NewJSONHandler(rotated, handlerOpts)}
		closer = rotated
	}

	log := slog.New(handler)
	if opts.App != "" {
		log = log.With(slog.String("app", opts.App))
	}
	return log, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout duplicates records to every handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
