// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix is prepended to every document name.
const RedisKeyPrefix = "json_"

// RedisCmdable is the subset of the go-redis client used by [RedisBackend].
// Both *redis.Client and *redis.ClusterClient satisfy it.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisBackend stores each document under the key json_<name> with no expiry.
type RedisBackend struct {
	client RedisCmdable
}

// NewRedisBackend wraps an already connected client.
func NewRedisBackend(client RedisCmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

// Key returns the Redis key of a document.
func (b *RedisBackend) Key(name string) string {
	return RedisKeyPrefix + name
}

func (b *RedisBackend) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: redis get %s: %w", name, err)
	}
	return data, nil
}

func (b *RedisBackend) Save(ctx context.Context, name string, data []byte) error {
	if err := b.client.Set(ctx, b.Key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("docstore: redis set %s: %w", name, err)
	}
	return nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("docstore: redis ping: %w", err)
	}
	return nil
}
