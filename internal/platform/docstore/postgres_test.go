// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
)

type fakeRow struct {
	body string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.body
	return nil
}

// fakePool keeps one body per document name.
type fakePool struct {
	rows    map[string]string
	execErr error
}

func (p *fakePool) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	body, ok := p.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{body: body}
}

func (p *fakePool) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	if p.execErr != nil {
		return pgconn.CommandTag{}, p.execErr
	}
	p.rows[args[0].(string)] = args[1].(string)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (p *fakePool) Ping(context.Context) error { return nil }

/*
TestPostgresBackend verifies the upsert arguments and the ErrNoRows mapping.
*/
func TestPostgresBackend(t *testing.T) {
	pool := &fakePool{rows: map[string]string{}}
	backend := docstore.NewPostgresBackend(pool)
	ctx := context.Background()

	_, err := backend.Load(ctx, "settings")
	assert.True(t, docstore.IsNotExist(err))

	require.NoError(t, backend.Save(ctx, "settings", []byte(`{"event":{}}`)))
	assert.Equal(t, `{"event":{}}`, pool.rows["settings"])

	data, err := backend.Load(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, `{"event":{}}`, string(data))
	require.NoError(t, backend.Ping(ctx))

	pool.execErr = errors.New("relation does not exist")
	assert.Error(t, backend.Save(ctx, "settings", []byte(`{}`)))
}
