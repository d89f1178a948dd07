// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package offline keeps the guestbook usable while the authoritative store is
unreachable.

A [Shim] wraps an upstream [guestbook.Store] and is itself a Store. While
ONLINE it forwards every call and remembers the results of reads. A transport
failure moves it to OFFLINE, where reads are served from the remembered
snapshot and writes are queued with a provisional placeholder identity.

Lifecycle:

	shim := offline.New(upstream, cache, logger, offline.Options{})
	if err := shim.Start(ctx); err != nil { ... }
	defer shim.Close()

When connectivity returns (an explicit [Shim.NotifyOnline] or the periodic
probe) the queue is replayed in submission order. Replay stops at the first
failure and the remainder stays queued.

Placeholder ids are never reconciled with the ids the upstream assigns on
replay.
*/
package offline

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
)

// # Connectivity State

// State is the connectivity state of a [Shim].
type State int32

const (
	StateOnline State = iota
	StateOffline
)

// String returns ONLINE or OFFLINE.
func (s State) String() string {
	if s == StateOffline {
		return "OFFLINE"
	}
	return "ONLINE"
}

// # Configuration

// Options tune the shim. Zero values fall back to the package defaults.
type Options struct {
	// Timeout bounds one upstream call including its retries, so it should
	// be at least the upstream client's total retry budget.
	Timeout time.Duration

	SnapshotInterval time.Duration
	ProbeInterval    time.Duration

	// MinBodyLength and InvitationBaseURL mirror the upstream policy so that
	// queued writes are validated and rendered the same way.
	MinBodyLength     int
	InvitationBaseURL string

	// Defaults is served when settings were never fetched.
	Defaults *guestbook.Settings

	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = constants.DefaultUpstreamTimeout
	}
	if o.SnapshotInterval <= 0 {
		o.SnapshotInterval = constants.DefaultSnapshotInterval
	}
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = constants.DefaultProbeInterval
	}
	if o.MinBodyLength < 1 {
		o.MinBodyLength = guestbook.DefaultMinBodyLength
	}
	if o.InvitationBaseURL == "" {
		o.InvitationBaseURL = "index.html"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// # Shim

// Shim is an offline-capable [guestbook.Store].
type Shim struct {
	upstream guestbook.Store
	cache    docstore.Backend
	logger   *slog.Logger
	options  Options

	state atomic.Int32

	ready     chan struct{}
	startOnce sync.Once
	startErr  error

	mu          sync.Mutex
	queue       []Operation
	snapshot    map[string]json.RawMessage
	provisional int
	dirty       bool

	flights singleflight.Group

	// lifetime is cancelled by Close and bounds background flushes.
	lifetime stdctx.Context
	cancel   stdctx.CancelFunc

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ guestbook.Store = (*Shim)(nil)

// New constructs a [Shim]. Call [Shim.Start] before serving requests.
func New(upstream guestbook.Store, cache docstore.Backend, logger *slog.Logger, options Options) *Shim {
	if logger == nil {
		logger = slog.Default()
	}
	lifetime, cancel := stdctx.WithCancel(stdctx.Background())
	return &Shim{
		lifetime: lifetime,
		cancel:   cancel,
		upstream: upstream,
		cache:    cache,
		logger:   logger,
		options:  options.withDefaults(),
		ready:    make(chan struct{}),
		snapshot: map[string]json.RawMessage{},
		stop:     make(chan struct{}),
	}
}

// State reports the current connectivity state.
func (shim *Shim) State() State {
	return State(shim.state.Load())
}

// Pending returns the number of queued writes.
func (shim *Shim) Pending() int {
	shim.mu.Lock()
	defer shim.mu.Unlock()
	return len(shim.queue)
}

/*
Start restores the persisted queue and snapshot, then launches the snapshot and
probe loops. Operations issued before Start completes wait for it.

A restored non-empty queue starts the shim OFFLINE so that the first probe
replays it.
*/
func (shim *Shim) Start(context stdctx.Context) error {
	shim.startOnce.Do(func() {
		defer close(shim.ready)

		if err := shim.restore(context); err != nil {
			shim.startErr = err
			return
		}

		if shim.Pending() > 0 {
			shim.state.Store(int32(StateOffline))
		}

		shim.wg.Add(2)
		go shim.snapshotLoop()
		go shim.probeLoop()

		shim.logger.Info("offline_shim_started",
			slog.String("state", shim.State().String()),
			slog.Int("pending", shim.Pending()),
		)
	})
	return shim.startErr
}

// Close stops the background loops and persists the queue and snapshot.
func (shim *Shim) Close() error {
	var err error
	shim.closeOnce.Do(func() {
		shim.cancel()
		close(shim.stop)
		shim.wg.Wait()

		context, cancel := stdctx.WithTimeout(stdctx.Background(), shim.options.Timeout)
		defer cancel()
		err = shim.persist(context)
	})
	return err
}

// await blocks until Start has finished.
func (shim *Shim) await(context stdctx.Context) error {
	select {
	case <-shim.ready:
		return shim.startErr
	case <-context.Done():
		return context.Err()
	}
}

// # Connectivity

// goOffline records a transport failure. It is a no-op when already OFFLINE.
func (shim *Shim) goOffline(context stdctx.Context, cause error) {
	if shim.state.CompareAndSwap(int32(StateOnline), int32(StateOffline)) {
		ctxutil.GetLogger(context, shim.logger).Warn("upstream_unavailable",
			slog.Any("error", cause),
		)
	}
}

/*
NotifyOnline signals that connectivity is back and replays the queue.

Returns:
  - error: The first replay failure, if any
*/
func (shim *Shim) NotifyOnline(context stdctx.Context) error {
	return shim.Flush(context)
}

// probeLoop pings the upstream while OFFLINE and flushes once it answers.
func (shim *Shim) probeLoop() {
	defer shim.wg.Done()

	ticker := time.NewTicker(shim.options.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shim.stop:
			return
		case <-ticker.C:
			if shim.State() != StateOffline {
				continue
			}
			shim.probe()
		}
	}
}

func (shim *Shim) probe() {
	context, cancel := stdctx.WithTimeout(stdctx.Background(), shim.options.Timeout)
	defer cancel()

	if err := shim.upstream.Ping(context); err != nil {
		shim.logger.Debug("upstream_probe_failed", slog.Any("error", err))
		return
	}

	if err := shim.Flush(shim.lifetime); err != nil {
		shim.logger.Debug("probe_flush_incomplete", slog.Any("error", err))
	}
}

// Ping reports the upstream reachability. An OFFLINE shim is still usable, so
// the error is informational.
func (shim *Shim) Ping(context stdctx.Context) error {
	if err := shim.await(context); err != nil {
		return err
	}
	_, err := bounded(context, shim.options.Timeout, func(context stdctx.Context) (struct{}, error) {
		return struct{}{}, shim.upstream.Ping(context)
	})
	return err
}

// # Failure Classification

/*
isTransportFailure reports whether err means the upstream could not be reached
or could not persist, as opposed to rejecting the request.
*/
func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, stdctx.DeadlineExceeded) {
		return true
	}
	appErr := apperr.As(err)
	if appErr == nil {
		return !errors.Is(err, stdctx.Canceled)
	}
	switch appErr.Code {
	case apperr.CodeStorage, apperr.CodeUnavailable:
		return true
	}
	return false
}

// bounded runs fn under the upstream timeout.
func bounded[T any](context stdctx.Context, timeout time.Duration, fn func(stdctx.Context) (T, error)) (T, error) {
	context, cancel := stdctx.WithTimeout(context, timeout)
	defer cancel()
	return fn(context)
}
