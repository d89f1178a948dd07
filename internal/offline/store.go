// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package offline

import (
	stdctx "context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
)

// # Read & Write Paths

/*
read serves key from the upstream while ONLINE and remembers the result.

When OFFLINE, or when the upstream call fails with a transport failure, the
remembered result is served instead, or fallback when nothing was remembered.
Upstream rejections are returned unchanged.
*/
func read[T any](shim *Shim, context stdctx.Context, key string, fallback func() T, fetch func(stdctx.Context) (T, error)) (T, error) {
	var zero T
	if err := shim.await(context); err != nil {
		return zero, err
	}

	if shim.State() == StateOnline {
		value, err := bounded(context, shim.options.Timeout, fetch)
		switch {
		case err == nil:
			shim.remember(key, value)
			return value, nil
		case context.Err() != nil:
			return zero, context.Err()
		case !isTransportFailure(err):
			return zero, err
		}
		shim.goOffline(context, err)
	}

	var cached T
	if shim.recall(key, &cached) {
		return cached, nil
	}
	return fallback(), nil
}

/*
write applies a mutation upstream while ONLINE, or queues it.

A queued mutation answers placeholder() together with the OFFLINE_DEFERRED
marker. Input must be validated by the caller so that nothing malformed is
ever queued.
*/
func write[T any](shim *Shim, context stdctx.Context, kind Kind, payload any, placeholder func() T, apply func(stdctx.Context) (T, error)) (T, error) {
	var zero T
	if err := shim.await(context); err != nil {
		return zero, err
	}

	queued, err := shim.enqueue(context, kind, payload, nil)
	if err != nil {
		return zero, err
	}
	if queued {
		return placeholder(), apperr.Deferred()
	}

	value, err := bounded(context, shim.options.Timeout, apply)
	switch {
	case err == nil || apperr.IsDeferred(err):
		return value, err
	case context.Err() != nil:
		return zero, context.Err()
	case !isTransportFailure(err):
		return zero, err
	}

	if _, err := shim.enqueue(context, kind, payload, err); err != nil {
		return zero, err
	}
	return placeholder(), apperr.Deferred()
}

// isProvisionalRef reports whether ref names a placeholder. Placeholders are
// unknown upstream, so writes against them are rejected instead of queued.
func isProvisionalRef(ref string) bool {
	if strings.HasPrefix(ref, constants.ProvisionalPrefix) {
		return true
	}
	id, err := strconv.Atoi(ref)
	return err == nil && id < 0
}

// # Comments

func (shim *Shim) ListComments(context stdctx.Context, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	return shim.listComments(context, page, perPage, nil,
		func(context stdctx.Context) (*guestbook.Page[guestbook.Comment], error) {
			return shim.upstream.ListComments(context, page, perPage)
		})
}

func (shim *Shim) ListCommentsByPresence(context stdctx.Context, presence guestbook.Presence, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	if !presence.Valid() {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   guestbook.FieldPresence,
			Message: "Must be ATTENDING or NOT_ATTENDING",
		})
	}
	return shim.listComments(context, page, perPage, url.Values{"presence": {presence.String()}},
		func(context stdctx.Context) (*guestbook.Page[guestbook.Comment], error) {
			return shim.upstream.ListCommentsByPresence(context, presence, page, perPage)
		})
}

func (shim *Shim) SearchComments(context stdctx.Context, query string, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	var filter url.Values
	if needle := strings.ToLower(strings.TrimSpace(query)); needle != "" {
		filter = url.Values{"q": {needle}}
	}
	return shim.listComments(context, page, perPage, filter,
		func(context stdctx.Context) (*guestbook.Page[guestbook.Comment], error) {
			return shim.upstream.SearchComments(context, query, page, perPage)
		})
}

func (shim *Shim) listComments(context stdctx.Context, page, perPage int, filter url.Values, fetch func(stdctx.Context) (*guestbook.Page[guestbook.Comment], error)) (*guestbook.Page[guestbook.Comment], error) {
	if err := guestbook.ValidatePage(page, perPage); err != nil {
		return nil, err
	}
	return read(shim, context, commentsKey(page, perPage, filter),
		func() *guestbook.Page[guestbook.Comment] { return guestbook.EmptyPage[guestbook.Comment](page, perPage) },
		fetch,
	)
}

/*
AddComment creates a comment upstream, or queues it and answers a placeholder
with a provisional uuid and a negative id.
*/
func (shim *Shim) AddComment(context stdctx.Context, input guestbook.AddCommentInput) (*guestbook.Comment, error) {
	if err := guestbook.ValidateComment(input, shim.options.MinBodyLength); err != nil {
		return nil, err
	}
	if input.ParentID != nil && *input.ParentID < 0 {
		return nil, apperr.NotFound("Parent comment")
	}

	placeholder := func() *guestbook.Comment {
		comment := guestbook.NewComment(input, shim.nextProvisionalID(), shim.options.Now())
		comment.UUID = constants.ProvisionalPrefix + uuid.NewString()
		comment.Provisional = true
		return &comment
	}

	return write(shim, context, KindAddComment, input, placeholder,
		func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.AddComment(context, input)
		})
}

func (shim *Shim) LikeComment(context stdctx.Context, ref string) (*guestbook.Comment, error) {
	if isProvisionalRef(ref) {
		return nil, apperr.NotFound("Comment")
	}

	placeholder := func() *guestbook.Comment {
		comment := shim.provisionalCopy(ref)
		comment.LikeCount++
		return comment
	}

	return write(shim, context, KindLikeComment, commentRef{Ref: ref}, placeholder,
		func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.LikeComment(context, ref)
		})
}

func (shim *Shim) DeleteComment(context stdctx.Context, ref string) (*guestbook.Comment, error) {
	if isProvisionalRef(ref) {
		return nil, apperr.NotFound("Comment")
	}

	placeholder := func() *guestbook.Comment { return shim.provisionalCopy(ref) }

	return write(shim, context, KindDeleteComment, commentRef{Ref: ref}, placeholder,
		func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.DeleteComment(context, ref)
		})
}

func (shim *Shim) UpdateComment(context stdctx.Context, ref string, patch guestbook.CommentPatch) (*guestbook.Comment, error) {
	if err := guestbook.ValidateCommentPatch(patch, shim.options.MinBodyLength); err != nil {
		return nil, err
	}
	if isProvisionalRef(ref) {
		return nil, apperr.NotFound("Comment")
	}

	placeholder := func() *guestbook.Comment {
		comment := shim.provisionalCopy(ref)
		guestbook.ApplyCommentPatch(comment, patch)
		comment.UpdatedAt = shim.options.Now().UTC()
		return comment
	}

	return write(shim, context, KindUpdateComment, commentUpdate{Ref: ref, Patch: patch}, placeholder,
		func(context stdctx.Context) (*guestbook.Comment, error) {
			return shim.upstream.UpdateComment(context, ref, patch)
		})
}

// provisionalCopy returns the remembered comment for ref marked provisional,
// or a bare comment carrying ref when it was never fetched.
func (shim *Shim) provisionalCopy(ref string) *guestbook.Comment {
	comment, ok := shim.findComment(ref)
	if !ok {
		comment = guestbook.Comment{UUID: ref, Replies: []guestbook.Comment{}}
		if id, err := strconv.Atoi(ref); err == nil {
			comment = guestbook.Comment{ID: id, Replies: []guestbook.Comment{}}
		}
	}
	comment.Provisional = true
	return &comment
}

// # Guests

func (shim *Shim) AddGuest(context stdctx.Context, input guestbook.AddGuestInput) (*guestbook.Guest, error) {
	if err := guestbook.ValidateGuest(input); err != nil {
		return nil, err
	}

	placeholder := func() *guestbook.Guest {
		guest := guestbook.NewGuest(input, shim.nextProvisionalID(), shim.options.InvitationBaseURL, shim.options.Now())
		guest.Provisional = true
		return &guest
	}

	return write(shim, context, KindAddGuest, input, placeholder,
		func(context stdctx.Context) (*guestbook.Guest, error) {
			return shim.upstream.AddGuest(context, input)
		})
}

func (shim *Shim) ListGuests(context stdctx.Context, page, perPage int) (*guestbook.Page[guestbook.Guest], error) {
	if err := guestbook.ValidatePage(page, perPage); err != nil {
		return nil, err
	}
	return read(shim, context, guestsKey(page, perPage),
		func() *guestbook.Page[guestbook.Guest] { return guestbook.EmptyPage[guestbook.Guest](page, perPage) },
		func(context stdctx.Context) (*guestbook.Page[guestbook.Guest], error) {
			return shim.upstream.ListGuests(context, page, perPage)
		})
}

func (shim *Shim) DeleteGuest(context stdctx.Context, id int) error {
	if id < 0 {
		return apperr.NotFound("Guest")
	}

	_, err := write(shim, context, KindDeleteGuest, guestRef{ID: id},
		func() struct{} { return struct{}{} },
		func(context stdctx.Context) (struct{}, error) {
			return struct{}{}, shim.upstream.DeleteGuest(context, id)
		})
	return err
}

// ClearGuests answers the remembered guest total when the clear is queued.
func (shim *Shim) ClearGuests(context stdctx.Context) (int, error) {
	return write(shim, context, KindClearGuests, nil, shim.cachedGuestTotal,
		func(context stdctx.Context) (int, error) {
			return shim.upstream.ClearGuests(context)
		})
}

func (shim *Shim) cachedGuestTotal() int {
	shim.mu.Lock()
	var listings [][]byte
	for key, raw := range shim.snapshot {
		if strings.HasPrefix(key, "guests?") {
			listings = append(listings, raw)
		}
	}
	shim.mu.Unlock()

	total := 0
	for _, raw := range listings {
		var page guestbook.Page[guestbook.Guest]
		if json.Unmarshal(raw, &page) == nil {
			total = max(total, page.Total)
		}
	}
	return total
}

// # Settings & Stats

func (shim *Shim) GetSettings(context stdctx.Context) (*guestbook.Settings, error) {
	return read(shim, context, keySettings,
		func() *guestbook.Settings {
			settings := shim.cachedSettings()
			return &settings
		},
		shim.upstream.GetSettings,
	)
}

// UpdateSettings answers the optimistic merge into the cached settings when
// the update is queued.
func (shim *Shim) UpdateSettings(context stdctx.Context, patch guestbook.SettingsPatch) (*guestbook.Settings, error) {
	placeholder := func() *guestbook.Settings {
		settings := shim.cachedSettings()
		guestbook.MergeSettings(&settings, patch, shim.options.Now().UTC())
		return &settings
	}

	return write(shim, context, KindUpdateSettings, patch, placeholder,
		func(context stdctx.Context) (*guestbook.Settings, error) {
			return shim.upstream.UpdateSettings(context, patch)
		})
}

func (shim *Shim) IncrementViewCount(context stdctx.Context) error {
	_, err := write(shim, context, KindIncrementViews, nil,
		func() struct{} { return struct{}{} },
		func(context stdctx.Context) (struct{}, error) {
			return struct{}{}, shim.upstream.IncrementViewCount(context)
		})
	return err
}

func (shim *Shim) Overview(context stdctx.Context) (*guestbook.Overview, error) {
	return read(shim, context, keyOverview,
		func() *guestbook.Overview {
			return &guestbook.Overview{
				LatestComments:    []guestbook.Comment{},
				PopularCategories: map[string]int{},
			}
		},
		shim.upstream.Overview,
	)
}
