// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package docstore persists whole JSON documents by name.

The guestbook never updates a field in place: every mutation reads the entire
document, changes it in memory and writes the entire document back. A
[Backend] therefore only needs two primitives, Load and Save, which keeps the
file, Redis and PostgreSQL strategies interchangeable.

Implementations:

  - [FileBackend]: <dir>/<name>.json with transactional writes and backups.
  - [RedisBackend]: one key per document (json_<name>).
  - [PostgresBackend]: one jsonb row per document.
  - [MemoryBackend]: process-local, for tests and throwaway runs.
*/
package docstore

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Load when the document has never been saved.
var ErrNotExist = errors.New("docstore: document does not exist")

// Backend stores opaque JSON documents addressed by name.
type Backend interface {
	// Load returns the raw bytes of the named document or [ErrNotExist].
	Load(ctx context.Context, name string) ([]byte, error)

	// Save replaces the named document atomically.
	Save(ctx context.Context, name string, data []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Restorer is implemented by backends that keep history. Restore puts back
// an earlier version without recording the version it replaces.
type Restorer interface {
	Restore(ctx context.Context, name string, data []byte) error
}

// Restore writes data back as the named document. Backends without history
// fall back to Save.
func Restore(ctx context.Context, backend Backend, name string, data []byte) error {
	if restorer, ok := backend.(Restorer); ok {
		return restorer.Restore(ctx, name, data)
	}
	return backend.Save(ctx, name, data)
}

// IsNotExist reports whether err means the document was never saved.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}
