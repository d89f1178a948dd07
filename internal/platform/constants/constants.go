// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, document names and cross-cutting keys
that are shared between the store, the offline proxy and the HTTP layer.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Documents: Names of the persisted JSON documents.
  - Offline Sync: Snapshot and probe cadence of the offline proxy.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "undangan"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 15 * time.Second

	// MaxRequestBodyBytes caps JSON request bodies.
	MaxRequestBodyBytes = 10 << 20
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Documents

const (
	DocComments = "comments"
	DocGuests   = "guests"
	DocSettings = "settings"

	// DocOfflineQueue holds the ordered list of writes made while offline.
	DocOfflineQueue = "offline_queue"

	// DocOfflineSnapshot holds the last successfully fetched read results.
	DocOfflineSnapshot = "offline_snapshot"
)

// # Offline Sync

const (
	// DefaultSnapshotInterval is how often the offline proxy persists its cache.
	DefaultSnapshotInterval = 30 * time.Second

	// DefaultProbeInterval is how often the offline proxy checks the upstream.
	DefaultProbeInterval = 15 * time.Second

	// DefaultUpstreamTimeout bounds every single upstream operation.
	DefaultUpstreamTimeout = 5 * time.Second

	// ProvisionalPrefix marks placeholder identities assigned while offline.
	ProvisionalPrefix = "offline-"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData       = "data"
	FieldPagination = "pagination"
	FieldError      = "error"
	FieldCode       = "code"
	FieldDeferred   = "deferred"
	FieldStatus     = "status"
	FieldChecks     = "checks"
)
