// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGQuerier is the subset of *pgxpool.Pool used by [PostgresBackend].
type PGQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresBackend stores each document as one row of guestbook_documents.
// The table is created by the migration package before the backend is built.
type PostgresBackend struct {
	pool PGQuerier
}

// NewPostgresBackend wraps a connected pool.
func NewPostgresBackend(pool PGQuerier) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Load(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT body::text FROM guestbook_documents WHERE name = $1`

	var body string
	err := b.pool.QueryRow(ctx, query, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: select %s: %w", name, err)
	}
	return []byte(body), nil
}

func (b *PostgresBackend) Save(ctx context.Context, name string, data []byte) error {
	const query = `
		INSERT INTO guestbook_documents (name, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE
		SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

	if _, err := b.pool.Exec(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("docstore: upsert %s: %w", name, err)
	}
	return nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("docstore: postgres ping: %w", err)
	}
	return nil
}
