// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// BackupsDirName is the sub-directory holding timestamped copies of each document.
const BackupsDirName = "backups"

// FileBackend keeps every document as <dir>/<name>.json.
//
// Writes go to a temp file in the same directory which is fsynced and renamed
// over the target, so readers never observe a half-written document. The
// previous version is copied into <dir>/backups first; only the newest
// retention copies per document are kept.
type FileBackend struct {
	dir       string
	retention int
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewFileBackend creates the data and backup directories if needed.
func NewFileBackend(dir string, retention int, logger *slog.Logger) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("docstore: data dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("docstore: create data dir: %w", err)
	}
	if retention < 1 {
		retention = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileBackend{dir: dir, retention: retention, logger: logger}, nil
}

// Path returns the file that holds the named document.
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name+".json")
}

// Load reads the named document. When the current file is unreadable or not
// valid JSON, the latest backup is returned instead.
func (b *FileBackend) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err == nil && json.Valid(data) {
		return data, nil
	}

	cause := err
	if cause == nil {
		cause = errors.New("invalid JSON")
	}

	backup, berr := b.latestBackup(name)
	if berr != nil {
		return nil, fmt.Errorf("docstore: read %s: %w; backup attempt: %v", name, cause, berr)
	}

	b.logger.Warn("document_restored_from_backup",
		slog.String("document", name),
		slog.Any("error", cause),
	)
	return backup, nil
}

// Save backs up the current version and replaces it transactionally.
func (b *FileBackend) Save(ctx context.Context, name string, data []byte) error {
	return b.write(ctx, name, data, true)
}

// Restore replaces the document like Save but takes no backup, so a version
// that is being undone never becomes the newest backup.
func (b *FileBackend) Restore(ctx context.Context, name string, data []byte) error {
	return b.write(ctx, name, data, false)
}

func (b *FileBackend) write(ctx context.Context, name string, data []byte, backup bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.Path(name)

	if _, err := os.Stat(target); backup && err == nil {
		stamp := time.Now().UTC().Format("20060102-150405.000000000")
		copyPath := filepath.Join(b.dir, BackupsDirName, fmt.Sprintf("%s.json.%s.bak", name, stamp))
		if err := copyFile(target, copyPath); err != nil {
			return fmt.Errorf("docstore: backup %s: %w", name, err)
		}
		b.prune(name)
	}

	temp := filepath.Join(b.dir, fmt.Sprintf(".%s.json.tmp-%d-%d", name, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("docstore: write %s: %w", name, err)
	}
	if err := os.Rename(temp, target); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("docstore: replace %s: %w", name, err)
	}
	return nil
}

// Ping checks that the data directory is still there.
func (b *FileBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(b.dir)
	if err != nil {
		return fmt.Errorf("docstore: stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("docstore: %s is not a directory", b.dir)
	}
	return nil
}

// backups lists the backup files of a document, oldest first.
func (b *FileBackend) backups(name string) ([]string, error) {
	dir := filepath.Join(b.dir, BackupsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := name + ".json."
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".bak") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	// the timestamp in the name yields lexicographic order
	sort.Strings(out)
	return out, nil
}

func (b *FileBackend) latestBackup(name string) ([]byte, error) {
	candidates, err := b.backups(name)
	if err != nil {
		return nil, err
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		data, err := os.ReadFile(candidates[i])
		if err == nil && json.Valid(data) {
			return data, nil
		}
	}
	return nil, errors.New("no usable backup")
}

func (b *FileBackend) prune(name string) {
	candidates, err := b.backups(name)
	if err != nil || len(candidates) <= b.retention {
		return
	}
	for _, old := range candidates[:len(candidates)-b.retention] {
		if err := os.Remove(old); err != nil {
			b.logger.Warn("backup_prune_failed", slog.String("path", old), slog.Any("error", err))
		}
	}
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()

	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
