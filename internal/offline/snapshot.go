// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package offline

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
)

// # Snapshot Keys

const (
	keySettings = "settings"
	keyOverview = "stats"
)

// commentsKey identifies one comment listing, e.g. "comments?page=1&per_page=10&q=ana".
func commentsKey(page, perPage int, filter url.Values) string {
	query := url.Values{}
	for name, values := range filter {
		query[name] = values
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	return "comments?" + query.Encode()
}

func guestsKey(page, perPage int) string {
	return "guests?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(perPage)
}

// # Snapshot Access

// remember stores the latest successful read under key.
func (shim *Shim) remember(key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		shim.logger.Warn("snapshot_encode_failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	shim.mu.Lock()
	shim.snapshot[key] = encoded
	shim.dirty = true
	shim.mu.Unlock()
}

// recall decodes the snapshot entry under key into dst.
func (shim *Shim) recall(key string, dst any) bool {
	shim.mu.Lock()
	raw, ok := shim.snapshot[key]
	shim.mu.Unlock()

	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		shim.logger.Warn("snapshot_decode_failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

// findComment searches every remembered comment listing for ref.
func (shim *Shim) findComment(ref string) (guestbook.Comment, bool) {
	shim.mu.Lock()
	var listings []json.RawMessage
	for key, raw := range shim.snapshot {
		if strings.HasPrefix(key, "comments?") {
			listings = append(listings, raw)
		}
	}
	shim.mu.Unlock()

	for _, raw := range listings {
		var page guestbook.Page[guestbook.Comment]
		if json.Unmarshal(raw, &page) != nil {
			continue
		}
		for _, comment := range page.Items {
			if comment.Matches(ref) {
				return comment, true
			}
			for _, reply := range comment.Replies {
				if reply.Matches(ref) {
					return reply, true
				}
			}
		}
	}
	return guestbook.Comment{}, false
}

// cachedSettings returns the remembered settings, or the configured defaults.
func (shim *Shim) cachedSettings() guestbook.Settings {
	var settings guestbook.Settings
	if shim.recall(keySettings, &settings) {
		return settings
	}
	if shim.options.Defaults != nil {
		return *shim.options.Defaults
	}
	return guestbook.DefaultSettings(shim.options.Now())
}

// # Persistence

// persistedSnapshot is the document stored under offline_snapshot.
type persistedSnapshot struct {
	Provisional int                        `json:"provisional"`
	Entries     map[string]json.RawMessage `json:"entries"`
}

// persist writes the queue and snapshot to the cache backend when they changed.
func (shim *Shim) persist(context stdctx.Context) error {
	shim.mu.Lock()
	if !shim.dirty {
		shim.mu.Unlock()
		return nil
	}
	queue, queueErr := json.Marshal(shim.queue)
	snapshot, snapshotErr := json.Marshal(persistedSnapshot{
		Provisional: shim.provisional,
		Entries:     shim.snapshot,
	})
	shim.dirty = false
	shim.mu.Unlock()

	err := firstError(queueErr, snapshotErr)
	if err == nil {
		err = shim.cache.Save(context, constants.DocOfflineQueue, queue)
	}
	if err == nil {
		err = shim.cache.Save(context, constants.DocOfflineSnapshot, snapshot)
	}

	if err != nil {
		shim.mu.Lock()
		shim.dirty = true
		shim.mu.Unlock()

		shim.logger.Error("offline_persist_failed", slog.Any("error", err))
		return apperr.StorageError(fmt.Errorf("offline: persist: %w", err))
	}

	shim.logger.Debug("offline_state_persisted", slog.Int("pending", shim.Pending()))
	return nil
}

// restore loads the persisted queue and snapshot. Missing documents are an
// empty state; unreadable ones are logged and dropped.
func (shim *Shim) restore(context stdctx.Context) error {
	var queue []Operation
	if err := shim.load(context, constants.DocOfflineQueue, &queue); err != nil {
		return err
	}

	snapshot := persistedSnapshot{}
	if err := shim.load(context, constants.DocOfflineSnapshot, &snapshot); err != nil {
		return err
	}

	shim.mu.Lock()
	defer shim.mu.Unlock()

	shim.queue = queue
	shim.provisional = min(snapshot.Provisional, 0)
	if snapshot.Entries != nil {
		shim.snapshot = snapshot.Entries
	}
	return nil
}

func (shim *Shim) load(context stdctx.Context, name string, dst any) error {
	data, err := shim.cache.Load(context, name)
	switch {
	case docstore.IsNotExist(err):
		return nil
	case err != nil && context.Err() != nil:
		return context.Err()
	case err != nil:
		shim.logger.Error("offline_restore_failed", slog.String("document", name), slog.Any("error", err))
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		shim.logger.Error("offline_restore_failed", slog.String("document", name), slog.Any("error", err))
	}
	return nil
}

// snapshotLoop persists the state every SnapshotInterval until Close.
func (shim *Shim) snapshotLoop() {
	defer shim.wg.Done()

	ticker := time.NewTicker(shim.options.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shim.stop:
			return
		case <-ticker.C:
			context, cancel := stdctx.WithTimeout(shim.lifetime, shim.options.Timeout)
			_ = shim.persist(context)
			cancel()
		}
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
