// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the guestbook HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the document backend (file, redis, postgres or memory).
//  4. Load the optional settings seed and create missing documents.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/config"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/logger"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/storage"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log, _ := logger.New(logger.Options{App: constants.AppName})
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	log, logCloser := logger.New(logger.Options{App: constants.AppName, Debug: cfg.Debug, File: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(log)
	log.Debug("debug_logging_enabled")

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Document Backend ───────────────────────────────────────────────
	backend, closeBackend, err := storage.Open(startupCtx, cfg, cfg.StoreBackend, cfg.DataDir, log)
	must(log, err, "open document backend")
	defer closeBackend()

	// ── 4. Guestbook Service ──────────────────────────────────────────────
	options := guestbook.Options{
		MinBodyLength:     cfg.CommentMinLength,
		InvitationBaseURL: cfg.InvitationBaseURL,
	}
	if cfg.SettingsSeedPath != "" {
		seed, err := guestbook.LoadSettingsSeed(cfg.SettingsSeedPath, time.Now())
		must(log, err, "load settings seed")
		options.Defaults = seed
		log.Info("settings_seed_loaded", slog.String("path", cfg.SettingsSeedPath))
	}

	service := guestbook.NewService(backend, log, options)
	must(log, service.Init(startupCtx), "initialize documents")

	// ── 5. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers([]api.HealthCheck{
		{Name: "storage", Check: service.Ping},
	}, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	// The signal context is also the rate limiter's lifetime.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(rootCtx, cfg, cfg.ServerPort, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Guestbook: guestbook.NewHandler(service),
	})

	if err := server.Run(rootCtx); err != nil {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		return
	}
	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
