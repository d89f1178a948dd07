// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
)

// # Service Layer

// Options tune the document-backed store.
type Options struct {
	// MinBodyLength is the shortest accepted comment body.
	MinBodyLength int
	// InvitationBaseURL prefixes every guest link.
	InvitationBaseURL string
	// Defaults replaces [DefaultSettings] when settings.json is created.
	Defaults *Settings
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Service implements [Store] over a [docstore.Backend].
//
// # Concurrency
//
// Each document has its own RWMutex. Comment and guest mutations also rewrite
// the stats block, so they hold their collection lock and then the settings
// lock, always in that order. Readers that need several documents lock them
// in the order comments, guests, settings.
type Service struct {
	backend docstore.Backend
	logger  *slog.Logger
	options Options

	commentsMu sync.RWMutex
	guestsMu   sync.RWMutex
	settingsMu sync.RWMutex
}

var _ Store = (*Service)(nil)

// NewService constructs a new guestbook [Service].
func NewService(backend docstore.Backend, logger *slog.Logger, options Options) *Service {
	if options.MinBodyLength < 1 {
		options.MinBodyLength = DefaultMinBodyLength
	}
	if options.InvitationBaseURL == "" {
		options.InvitationBaseURL = "index.html"
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, logger: logger, options: options}
}

/*
Init creates every document that does not exist yet.

Documents that exist but cannot be read are left alone so that a transient
backend failure never overwrites real data with defaults.

Returns:
  - error: STORAGE_ERROR if a missing document could not be created
*/
func (service *Service) Init(context context.Context) error {
	defaults := map[string]func() any{
		constants.DocComments: func() any { return newCommentsDoc() },
		constants.DocGuests:   func() any { return newGuestsDoc() },
		constants.DocSettings: func() any { settings := service.defaultSettings(); return &settings },
	}

	for _, name := range []string{constants.DocComments, constants.DocGuests, constants.DocSettings} {
		_, err := service.backend.Load(context, name)
		if err == nil {
			continue
		}
		if !docstore.IsNotExist(err) {
			service.logger.Warn("document_load_failed", slog.String("document", name), slog.Any("error", err))
			continue
		}
		if err := service.save(context, name, defaults[name]()); err != nil {
			return err
		}
		service.logger.Info("document_created", slog.String("document", name))
	}

	return nil
}

// Ping reports whether the backend is reachable.
func (service *Service) Ping(context context.Context) error {
	if err := service.backend.Ping(context); err != nil {
		return apperr.StorageError(err)
	}
	return nil
}

// # Document Access

func (service *Service) defaultSettings() Settings {
	if service.options.Defaults != nil {
		settings := *service.options.Defaults
		settings.Stats = Stats{}
		settings.UpdatedAt = nil
		return settings
	}
	return DefaultSettings(service.options.Now())
}

// read decodes a document for a read operation. Missing, unreadable and
// corrupt documents leave dst at its default; only context errors surface.
func (service *Service) read(context context.Context, name string, dst any, reset func()) error {
	if err := context.Err(); err != nil {
		return err
	}

	data, err := service.backend.Load(context, name)
	if docstore.IsNotExist(err) {
		return nil
	}
	if err == nil {
		err = json.Unmarshal(data, dst)
		if err != nil {
			err = fmt.Errorf("decode %s: %w", name, err)
		}
	}
	if err != nil {
		if ctxErr := context.Err(); ctxErr != nil {
			return ctxErr
		}
		ctxutil.GetLogger(context, service.logger).Warn("document_load_failed",
			slog.String("document", name),
			slog.Any("error", err),
		)
		reset()
	}
	return nil
}

// load decodes a document for a mutation and returns its pre-image. Any
// failure other than a missing document aborts the mutation.
func (service *Service) load(context context.Context, name string, dst any) ([]byte, error) {
	data, err := service.backend.Load(context, name)
	switch {
	case docstore.IsNotExist(err):
		return json.Marshal(dst)
	case err != nil:
		if ctxErr := context.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperr.StorageError(err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return nil, apperr.StorageError(fmt.Errorf("decode %s: %w", name, err))
	}
	return data, nil
}

// save encodes and writes one document.
func (service *Service) save(context context.Context, name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperr.Internal(fmt.Errorf("encode %s: %w", name, err))
	}
	if err := service.backend.Save(context, name, data); err != nil {
		return apperr.StorageError(err)
	}
	return nil
}

/*
commit ends a mutation by writing the collection and, when settings is not
nil, the settings document.

Cancellation is honoured up to this point only; the writes themselves run to
completion. If the settings write fails the collection is restored from pre
so that the pair never disagrees.
*/
func (service *Service) commit(context context.Context, name string, pre []byte, doc any, settings *Settings) error {
	if err := context.Err(); err != nil {
		return err
	}
	writeCtx := ctxutil.Detach(context)

	if err := service.save(writeCtx, name, doc); err != nil {
		return err
	}
	if settings == nil {
		return nil
	}

	if err := service.save(writeCtx, constants.DocSettings, settings); err != nil {
		if rollbackErr := docstore.Restore(writeCtx, service.backend, name, pre); rollbackErr != nil {
			ctxutil.GetLogger(context, service.logger).Error("document_rollback_failed",
				slog.String("document", name),
				slog.Any("error", rollbackErr),
			)
		}
		return err
	}
	return nil
}

// loadSettings loads settings.json for a mutation.
func (service *Service) loadSettings(context context.Context) (*Settings, error) {
	settings := service.defaultSettings()
	if _, err := service.load(context, constants.DocSettings, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
