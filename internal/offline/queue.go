// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package offline

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
)

// # Queued Operations

// Kind names a queued write.
type Kind string

const (
	KindAddComment     Kind = "add_comment"
	KindLikeComment    Kind = "like_comment"
	KindUpdateComment  Kind = "update_comment"
	KindDeleteComment  Kind = "delete_comment"
	KindAddGuest       Kind = "add_guest"
	KindDeleteGuest    Kind = "delete_guest"
	KindClearGuests    Kind = "clear_guests"
	KindUpdateSettings Kind = "update_settings"
	KindIncrementViews Kind = "increment_views"
)

// Operation is one write made while OFFLINE, persisted until replayed.
type Operation struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	QueuedAt time.Time       `json:"queued_at"`
}

// commentRef is the payload of like and delete.
type commentRef struct {
	Ref string `json:"ref"`
}

// commentUpdate is the payload of update_comment.
type commentUpdate struct {
	Ref   string                 `json:"ref"`
	Patch guestbook.CommentPatch `json:"patch"`
}

// guestRef is the payload of delete_guest.
type guestRef struct {
	ID int `json:"id"`
}

/*
enqueue appends a write to the queue when the shim is OFFLINE.

A non-nil cause is the transport failure the caller just observed: it moves
the shim OFFLINE in the same critical section, so the write is always queued.
With a nil cause nothing is queued while ONLINE.

Returns:
  - bool: Whether the write was queued
  - error: An encoding failure of payload
*/
func (shim *Shim) enqueue(context stdctx.Context, kind Kind, payload any, cause error) (bool, error) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return false, apperr.Internal(fmt.Errorf("offline: encode %s: %w", kind, err))
		}
		raw = encoded
	}

	logger := ctxutil.GetLogger(context, shim.logger)

	shim.mu.Lock()
	if cause != nil {
		if shim.state.Swap(int32(StateOffline)) == int32(StateOnline) {
			logger.Warn("upstream_unavailable", slog.Any("error", cause))
		}
	} else if shim.State() == StateOnline {
		shim.mu.Unlock()
		return false, nil
	}

	op := Operation{
		ID:       uuid.NewString(),
		Kind:     kind,
		Payload:  raw,
		QueuedAt: shim.options.Now().UTC(),
	}
	shim.queue = append(shim.queue, op)
	shim.dirty = true
	pending := len(shim.queue)
	shim.mu.Unlock()

	logger.Info("offline_queued",
		slog.String("op_id", op.ID),
		slog.String("kind", string(kind)),
		slog.Int("pending", pending),
	)
	return true, nil
}

// nextProvisionalID hands out negative ids that never collide with upstream ids.
func (shim *Shim) nextProvisionalID() int {
	shim.mu.Lock()
	defer shim.mu.Unlock()
	shim.provisional--
	shim.dirty = true
	return shim.provisional
}

// # Flush

/*
Flush replays the queue against the upstream in submission order.

Each replayed write is dequeued as soon as it succeeds. The first failure stops
the replay, leaves it and everything after it queued and keeps the shim
OFFLINE. An empty queue returns the shim to ONLINE. Concurrent calls share one
replay.

Returns:
  - error: The failure that stopped the replay, or nil when the queue drained
*/
func (shim *Shim) Flush(context stdctx.Context) error {
	if err := shim.await(context); err != nil {
		return err
	}

	_, err, _ := shim.flights.Do("flush", func() (any, error) {
		return nil, shim.flush(context)
	})
	return err
}

func (shim *Shim) flush(context stdctx.Context) error {
	logger := ctxutil.GetLogger(context, shim.logger)
	replayed := 0

	for {
		shim.mu.Lock()
		if len(shim.queue) == 0 {
			// ONLINE is only ever set under mu with an empty queue.
			shim.state.Store(int32(StateOnline))
			shim.mu.Unlock()
			break
		}
		op := shim.queue[0]
		shim.mu.Unlock()

		if err := shim.replay(context, op); err != nil {
			shim.state.Store(int32(StateOffline))
			logger.Warn("flush_stopped",
				slog.String("op_id", op.ID),
				slog.String("kind", string(op.Kind)),
				slog.Int("replayed", replayed),
				slog.Int("pending", shim.Pending()),
				slog.Any("error", err),
			)
			return err
		}

		shim.mu.Lock()
		shim.queue = shim.queue[1:]
		shim.dirty = true
		shim.mu.Unlock()
		replayed++
	}

	if replayed > 0 {
		logger.Info("flush_completed", slog.Int("replayed", replayed))
	}
	return nil
}

// replay sends one queued write upstream. A write the upstream queued in turn
// counts as delivered.
func (shim *Shim) replay(context stdctx.Context, op Operation) error {
	err := shim.send(context, op)
	if apperr.IsDeferred(err) {
		return nil
	}
	return err
}

func (shim *Shim) send(context stdctx.Context, op Operation) error {
	timeout := shim.options.Timeout

	switch op.Kind {
	case KindAddComment:
		var input guestbook.AddCommentInput
		if err := json.Unmarshal(op.Payload, &input); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.AddComment(context, input)
		})
		return err

	case KindLikeComment:
		var ref commentRef
		if err := json.Unmarshal(op.Payload, &ref); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.LikeComment(context, ref.Ref)
		})
		return err

	case KindUpdateComment:
		var update commentUpdate
		if err := json.Unmarshal(op.Payload, &update); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.UpdateComment(context, update.Ref, update.Patch)
		})
		return err

	case KindDeleteComment:
		var ref commentRef
		if err := json.Unmarshal(op.Payload, &ref); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.DeleteComment(context, ref.Ref)
		})
		return err

	case KindAddGuest:
		var input guestbook.AddGuestInput
		if err := json.Unmarshal(op.Payload, &input); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (*guestbook.Guest, error) {
			return shim.upstream.AddGuest(context, input)
		})
		return err

	case KindDeleteGuest:
		var ref guestRef
		if err := json.Unmarshal(op.Payload, &ref); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (struct{}, error) {
			return struct{}{}, shim.upstream.DeleteGuest(context, ref.ID)
		})
		return err

	case KindClearGuests:
		_, err := bounded(context, timeout, func(context stdctx.Context) (int, error) {
			return shim.upstream.ClearGuests(context)
		})
		return err

	case KindUpdateSettings:
		var patch guestbook.SettingsPatch
		if err := json.Unmarshal(op.Payload, &patch); err != nil {
			return corrupt(op, err)
		}
		_, err := bounded(context, timeout, func(context stdctx.Context) (*guestbook.Settings, error) {
			return shim.upstream.UpdateSettings(context, patch)
		})
		return err

	case KindIncrementViews:
		_, err := bounded(context, timeout, func(context stdctx.Context) (struct{}, error) {
			return struct{}{}, shim.upstream.IncrementViewCount(context)
		})
		return err
	}

	return apperr.Internal(fmt.Errorf("offline: unknown operation kind %q", op.Kind))
}

func corrupt(op Operation, err error) error {
	return apperr.Internal(fmt.Errorf("offline: decode %s %s: %w", op.Kind, op.ID, err))
}
