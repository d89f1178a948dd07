// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command proxy serves the guestbook API locally and forwards it to an
// upstream api server, falling back to a local cache while the upstream is
// unreachable.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the HTTP client for the upstream.
//  4. Open the cache backend and start the offline shim.
//  5. Start HTTP server with graceful shutdown; the shim persists its queue
//     on the way out.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hilmanmaulana1237/undangan-evan/internal/api"
	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/offline"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/config"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/logger"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/storage"
	"github.com/hilmanmaulana1237/undangan-evan/internal/remote"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log, _ := logger.New(logger.Options{App: constants.AppName + "-proxy"})
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	log, logCloser := logger.New(logger.Options{App: constants.AppName + "-proxy", Debug: cfg.Debug, File: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ProxyPort),
		slog.String("upstream", cfg.UpstreamURL),
		slog.String("cache_backend", cfg.CacheBackend),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Upstream ───────────────────────────────────────────────────────
	upstream, err := remote.New(remote.Options{
		BaseURL: cfg.UpstreamURL,
		Timeout: cfg.UpstreamTimeout,
		Retries: cfg.UpstreamRetries,
	}, log)
	must(log, err, "configure upstream")

	// ── 4. Offline Shim ───────────────────────────────────────────────────
	cache, closeCache, err := storage.Open(startupCtx, cfg, cfg.CacheBackend, cfg.CacheDir, log)
	must(log, err, "open cache backend")
	defer closeCache()

	// The shim bounds whole calls, retries included.
	options := offline.Options{
		Timeout:           upstream.Budget(),
		SnapshotInterval:  cfg.SnapshotInterval,
		ProbeInterval:     cfg.ProbeInterval,
		MinBodyLength:     cfg.CommentMinLength,
		InvitationBaseURL: cfg.InvitationBaseURL,
	}
	if cfg.SettingsSeedPath != "" {
		seed, err := guestbook.LoadSettingsSeed(cfg.SettingsSeedPath, time.Now())
		must(log, err, "load settings seed")
		options.Defaults = seed
	}

	shim := offline.New(upstream, cache, log, options)
	must(log, shim.Start(startupCtx), "start offline shim")
	defer func() {
		if err := shim.Close(); err != nil {
			log.Error("offline_shim_close_failed", slog.Any("error", err))
		}
	}()

	// ── 5. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers([]api.HealthCheck{
		{Name: "cache", Check: cache.Ping},
		{Name: "upstream", Check: shim.Ping, Informational: true},
	}, log)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(rootCtx, cfg, cfg.ProxyPort, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Guestbook: guestbook.NewHandler(shim),
	})

	if err := server.Run(rootCtx); err != nil {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		return
	}
	log.Info("server_stopped_cleanly", slog.Int("pending", shim.Pending()))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
