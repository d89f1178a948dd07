// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the document store and the offline cache to Redis.

Documents are written without a TTL, so the instance must be configured
with persistence (RDB or AOF) when it is used as the primary store.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
)

// Client limits. A guestbook holds a handful of small documents.
const (
	poolSize     = 5
	minIdleConns = 1
	maxRetries   = 2
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
)

/*
NewClient parses redisURL (redis://[user:pass@]host:port/db) and returns a
client that answered PING.

Commands honour their context deadline, so a slow Redis surfaces as a
STORAGE_ERROR within the request budget instead of hanging.
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.ClientName = constants.AppName
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.MaxRetries = maxRetries
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout
	options.ContextTimeoutEnabled = true

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected", slog.String("addr", options.Addr), slog.Int("db", options.DB))
	return client, nil
}

// Ping checks the connection within ioTimeout.
func Ping(context stdctx.Context, client *redis.Client) error {
	context, cancel := stdctx.WithTimeout(context, ioTimeout)
	defer cancel()

	if err := client.Ping(context).Err(); err != nil {
		return fmt.Errorf("redis: ping %s: %w", client.Options().Addr, err)
	}
	return nil
}
