// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage selects and connects the document backend named in the
configuration. Both binaries use it: cmd/api for the guestbook documents and
cmd/proxy for the offline cache.
*/
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/config"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/migration"
	pgstore "github.com/hilmanmaulana1237/undangan-evan/internal/platform/postgres"
	redisstore "github.com/hilmanmaulana1237/undangan-evan/internal/platform/redis"
)

/*
Open connects the backend called kind.

Parameters:
  - kind: One of the config.Backend* names
  - dir: The directory of the file backend

Returns:
  - docstore.Backend: The connected backend
  - func(): Releases the connection; safe to call when Open failed
  - error: Connection or migration failure
*/
func Open(ctx context.Context, cfg *config.Config, kind, dir string, logger *slog.Logger) (docstore.Backend, func(), error) {
	noop := func() {}

	switch kind {
	case config.BackendMemory:
		logger.Warn("memory_backend_selected", slog.String("note", "documents are lost on restart"))
		return docstore.NewMemoryBackend(), noop, nil

	case config.BackendFile:
		backend, err := docstore.NewFileBackend(dir, cfg.BackupRetention, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("file_backend_selected", slog.String("dir", dir))
		return backend, noop, nil

	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, noop, err
		}
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Error("redis_close_failed", slog.Any("error", err))
			}
		}
		return docstore.NewRedisBackend(client), closer, nil

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, noop, err
		}
		if _, err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return docstore.NewPostgresBackend(pool), pool.Close, nil
	}

	return nil, noop, fmt.Errorf("storage: unknown backend %q", kind)
}
