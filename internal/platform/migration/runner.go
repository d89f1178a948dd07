// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package migration creates the guestbook_documents table before the postgres
document backend serves traffic.

The schema ships inside the binary (sql/*.sql). Setting MIGRATION_PATH
replaces it with a directory on disk, which is useful when a deployment
needs an extra index without a rebuild.
*/
package migration

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Registers the "pgx5" database scheme.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// Registers the "file" source scheme used by MIGRATION_PATH.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

//go:embed sql/*.sql
var embedded embed.FS

// Status describes the schema version after [RunUp].
type Status struct {
	From    uint
	To      uint
	Applied bool
}

/*
RunUp brings the schema to the latest version.

Parameters:
  - dsn: libpq keyword string or postgres:// URL
  - dir: migrations directory; empty selects the embedded schema
  - logger: receives progress at debug level

Returns:
  - Status: versions before and after
  - error: a dirty schema or a failed step
*/
func RunUp(dsn, dir string, logger *slog.Logger) (Status, error) {
	migrator, err := open(dsn, dir)
	if err != nil {
		return Status{}, err
	}
	defer func() {
		if sourceErr, dbErr := migrator.Close(); sourceErr != nil || dbErr != nil {
			logger.Warn("migration_close_failed", slog.Any("source_error", sourceErr), slog.Any("db_error", dbErr))
		}
	}()
	migrator.Log = &slogAdapter{logger: logger}

	from, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return Status{}, fmt.Errorf("migration: read version: %w", err)
	case dirty:
		return Status{From: from}, fmt.Errorf("migration: schema is dirty at version %d, fix it by hand and force the version", from)
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migration_up_to_date", slog.Uint64("version", uint64(from)))
		return Status{From: from, To: from}, nil
	}
	if err != nil {
		return Status{From: from}, fmt.Errorf("migration: apply: %w", err)
	}

	to, _, _ := migrator.Version()
	logger.Info("migration_applied", slog.Uint64("from_version", uint64(from)), slog.Uint64("to_version", uint64(to)))
	return Status{From: from, To: to, Applied: true}, nil
}

func open(dsn, dir string) (*migrate.Migrate, error) {
	target := ToPgx5DSN(dsn)

	if dir != "" {
		migrator, err := migrate.New("file://"+dir, target)
		if err != nil {
			return nil, fmt.Errorf("migration: open %s: %w", dir, err)
		}
		return migrator, nil
	}

	src, err := Embedded()
	if err != nil {
		return nil, err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return nil, fmt.Errorf("migration: open embedded schema: %w", err)
	}
	return migrator, nil
}

// Embedded returns the schema compiled into the binary as a migrate source.
func Embedded() (source.Driver, error) {
	src, err := iofs.New(embedded, "sql")
	if err != nil {
		return nil, fmt.Errorf("migration: read embedded schema: %w", err)
	}
	return src, nil
}

// ToPgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// of the golang-migrate pgx/v5 driver. Anything else is returned as is.
func ToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// slogAdapter satisfies migrate.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Printf(format string, args ...any) {
	a.logger.Debug("migration_step", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (a *slogAdapter) Verbose() bool { return false }
