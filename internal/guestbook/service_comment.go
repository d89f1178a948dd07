// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
	"github.com/hilmanmaulana1237/undangan-evan/pkg/slug"
)

// # Comment Queries

// readComments returns the comments document for a read operation.
func (service *Service) readComments(context context.Context) (*commentsDoc, error) {
	doc := newCommentsDoc()
	err := service.read(context, constants.DocComments, doc, func() { doc = newCommentsDoc() })
	if err != nil {
		return nil, err
	}
	doc.normalize()
	return doc, nil
}

/*
ListComments returns one page of top-level comments, newest first.

Parameters:
  - context: context.Context
  - page, perPage: int (1-indexed)

Returns:
  - *Page[Comment]: Total counts top-level comments only
  - error: VALIDATION_ERROR for page or perPage below 1
*/
func (service *Service) ListComments(context context.Context, page, perPage int) (*Page[Comment], error) {
	return service.listComments(context, page, perPage, nil)
}

/*
ListCommentsByPresence filters top-level comments by presence before
paginating, so Total and TotalPages describe the filtered list.
*/
func (service *Service) ListCommentsByPresence(context context.Context, presence Presence, page, perPage int) (*Page[Comment], error) {
	if !presence.Valid() {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldPresence,
			Message: "Must be ATTENDING or NOT_ATTENDING",
		})
	}
	return service.listComments(context, page, perPage, func(c *Comment) bool {
		return c.Presence == presence
	})
}

/*
SearchComments keeps top-level comments whose author or body contains query,
ignoring case. A blank query lists everything.
*/
func (service *Service) SearchComments(context context.Context, query string, page, perPage int) (*Page[Comment], error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return service.listComments(context, page, perPage, nil)
	}
	return service.listComments(context, page, perPage, func(c *Comment) bool {
		return strings.Contains(strings.ToLower(c.AuthorName), needle) ||
			strings.Contains(strings.ToLower(c.Body), needle)
	})
}

func (service *Service) listComments(context context.Context, page, perPage int, keep func(*Comment) bool) (*Page[Comment], error) {
	if err := ValidatePage(page, perPage); err != nil {
		return nil, err
	}

	service.commentsMu.RLock()
	defer service.commentsMu.RUnlock()

	doc, err := service.readComments(context)
	if err != nil {
		return nil, err
	}

	items := doc.sortedComments()
	if keep != nil {
		items = slices.DeleteFunc(items, func(c Comment) bool { return !keep(&c) })
	}

	return paginate(items, page, perPage), nil
}

// # Comment Mutations

/*
AddComment validates and stores a new comment or reply.

A top-level comment is inserted at the head of the list. A reply is appended
to the replies of the top-level comment whose id equals ParentID.

Returns:
  - *Comment: The stored comment with its uuid, id and timestamps
  - error: VALIDATION_ERROR, NOT_FOUND (unknown parent) or STORAGE_ERROR
*/
func (service *Service) AddComment(context context.Context, input AddCommentInput) (*Comment, error) {
	if err := ValidateComment(input, service.options.MinBodyLength); err != nil {
		return nil, err
	}

	service.commentsMu.Lock()
	defer service.commentsMu.Unlock()
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	doc := newCommentsDoc()
	pre, err := service.load(context, constants.DocComments, doc)
	if err != nil {
		return nil, err
	}
	doc.normalize()

	settings, err := service.loadSettings(context)
	if err != nil {
		return nil, err
	}

	parent := -1
	if input.ParentID != nil {
		parent = slices.IndexFunc(doc.Comments, func(c Comment) bool { return c.ID == *input.ParentID })
		if parent < 0 {
			return nil, apperr.NotFound("Parent comment")
		}
	}

	doc.LastID++
	comment := NewComment(input, doc.LastID, service.options.Now())

	if parent >= 0 {
		doc.Comments[parent].Replies = append(doc.Comments[parent].Replies, comment)
	} else {
		doc.Comments = slices.Insert(doc.Comments, 0, comment)
	}

	doc.Total = doc.size()
	settings.Stats.TotalComments = doc.Total

	if err := service.commit(context, constants.DocComments, pre, doc, settings); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context, service.logger).Info("comment_created",
		slog.String("uuid", comment.UUID),
		slog.Int("id", comment.ID),
		slog.Bool("reply", comment.ParentID != nil),
	)

	return &comment, nil
}

/*
LikeComment adds exactly one like to a top-level comment or reply.

Calling it twice adds two likes.

Returns:
  - *Comment: The comment after the increment
  - error: NOT_FOUND or STORAGE_ERROR
*/
func (service *Service) LikeComment(context context.Context, ref string) (*Comment, error) {
	service.commentsMu.Lock()
	defer service.commentsMu.Unlock()

	doc := newCommentsDoc()
	pre, err := service.load(context, constants.DocComments, doc)
	if err != nil {
		return nil, err
	}
	doc.normalize()

	top, reply, ok := doc.locate(ref)
	if !ok {
		return nil, apperr.NotFound("Comment")
	}

	target := doc.at(top, reply)
	target.LikeCount++
	liked := *target

	if err := service.commit(context, constants.DocComments, pre, doc, nil); err != nil {
		return nil, err
	}

	return &liked, nil
}

/*
DeleteComment removes a comment wherever it lives. Deleting a top-level
comment also removes its replies; the counters drop by the number of removed
nodes.

Returns:
  - *Comment: The removed comment (with its replies, if any)
  - error: NOT_FOUND or STORAGE_ERROR
*/
func (service *Service) DeleteComment(context context.Context, ref string) (*Comment, error) {
	service.commentsMu.Lock()
	defer service.commentsMu.Unlock()
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	doc := newCommentsDoc()
	pre, err := service.load(context, constants.DocComments, doc)
	if err != nil {
		return nil, err
	}
	doc.normalize()

	settings, err := service.loadSettings(context)
	if err != nil {
		return nil, err
	}

	top, reply, ok := doc.locate(ref)
	if !ok {
		return nil, apperr.NotFound("Comment")
	}

	removed := *doc.at(top, reply)
	if reply < 0 {
		doc.Comments = slices.Delete(doc.Comments, top, top+1)
	} else {
		doc.Comments[top].Replies = slices.Delete(doc.Comments[top].Replies, reply, reply+1)
	}

	doc.Total = doc.size()
	settings.Stats.TotalComments = doc.Total

	if err := service.commit(context, constants.DocComments, pre, doc, settings); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context, service.logger).Info("comment_deleted",
		slog.String("uuid", removed.UUID),
		slog.Int("removed", removed.Size()),
	)

	return &removed, nil
}

/*
UpdateComment changes the body, presence or attachment of a comment and
refreshes its updated_at, even when the patch is empty.

Returns:
  - *Comment: The updated comment
  - error: VALIDATION_ERROR, NOT_FOUND or STORAGE_ERROR
*/
func (service *Service) UpdateComment(context context.Context, ref string, patch CommentPatch) (*Comment, error) {
	if err := ValidateCommentPatch(patch, service.options.MinBodyLength); err != nil {
		return nil, err
	}

	service.commentsMu.Lock()
	defer service.commentsMu.Unlock()

	doc := newCommentsDoc()
	pre, err := service.load(context, constants.DocComments, doc)
	if err != nil {
		return nil, err
	}
	doc.normalize()

	top, reply, ok := doc.locate(ref)
	if !ok {
		return nil, apperr.NotFound("Comment")
	}

	target := doc.at(top, reply)
	ApplyCommentPatch(target, patch)
	target.UpdatedAt = service.options.Now().UTC()
	updated := *target

	if err := service.commit(context, constants.DocComments, pre, doc, nil); err != nil {
		return nil, err
	}

	return &updated, nil
}

// ApplyCommentPatch copies the set fields of patch onto c.
func ApplyCommentPatch(c *Comment, patch CommentPatch) {
	if patch.Body != nil {
		c.Body = strings.TrimSpace(*patch.Body)
	}
	if patch.Presence != nil {
		c.Presence = *patch.Presence
	}
	if patch.GifURL != nil {
		c.GifURL = normalizeGif(patch.GifURL)
	}
}

/*
NewComment builds a comment from validated input.

A reply (input.ParentID set) keeps the parent's id and is not a parent itself.
The uuid is freshly generated; callers that need another identity overwrite it.
*/
func NewComment(input AddCommentInput, id int, now time.Time) Comment {
	name := strings.TrimSpace(input.Name)
	now = now.UTC()

	comment := Comment{
		UUID:       uuid.NewString(),
		ID:         id,
		AuthorName: name,
		AuthorSlug: slug.Handle(name),
		Presence:   input.Presence,
		Body:       strings.TrimSpace(input.Body),
		GifURL:     normalizeGif(input.GifURL),
		CreatedAt:  now,
		UpdatedAt:  now,
		IsParent:   input.ParentID == nil,
		Replies:    []Comment{},
		IP:         input.IP,
		UserAgent:  input.UserAgent,
	}
	if input.ParentID != nil {
		parentID := *input.ParentID
		comment.ParentID = &parentID
	}
	return comment
}
