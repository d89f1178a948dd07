// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"context"
	"net/url"
	"strings"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/validate"
	"github.com/hilmanmaulana1237/undangan-evan/pkg/pagination"
	"github.com/hilmanmaulana1237/undangan-evan/pkg/slug"
)

// # Store Interface

// Store is the read/write contract shared by every transport.
//
// Mutations either complete and persist or have no effect. Errors are
// [apperr.AppError] values: VALIDATION_ERROR, NOT_FOUND, CONFLICT,
// STORAGE_ERROR, or OFFLINE_DEFERRED when the offline proxy queued the write
// and returned a placeholder alongside the error.
//
// [apperr.AppError]: github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr.AppError
type Store interface {
	ListComments(ctx context.Context, page, perPage int) (*Page[Comment], error)
	ListCommentsByPresence(ctx context.Context, presence Presence, page, perPage int) (*Page[Comment], error)
	SearchComments(ctx context.Context, query string, page, perPage int) (*Page[Comment], error)
	AddComment(ctx context.Context, input AddCommentInput) (*Comment, error)
	LikeComment(ctx context.Context, ref string) (*Comment, error)
	DeleteComment(ctx context.Context, ref string) (*Comment, error)
	UpdateComment(ctx context.Context, ref string, patch CommentPatch) (*Comment, error)

	AddGuest(ctx context.Context, input AddGuestInput) (*Guest, error)
	ListGuests(ctx context.Context, page, perPage int) (*Page[Guest], error)
	DeleteGuest(ctx context.Context, id int) error
	ClearGuests(ctx context.Context) (int, error)

	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, patch SettingsPatch) (*Settings, error)
	IncrementViewCount(ctx context.Context) error

	Overview(ctx context.Context) (*Overview, error)
	Ping(ctx context.Context) error
}

// # Inputs

// AddCommentInput is the body of POST /api/comments.
type AddCommentInput struct {
	Name     string   `json:"name"`
	Presence Presence `json:"presence"`
	Body     string   `json:"comment"`
	GifURL   *string  `json:"gif_url,omitempty"`
	ParentID *int     `json:"parent_id,omitempty"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// CommentPatch carries the mutable fields of a comment; nil means unchanged.
// An empty GifURL removes the attachment.
type CommentPatch struct {
	Body     *string   `json:"comment,omitempty"`
	Presence *Presence `json:"presence,omitempty"`
	GifURL   *string   `json:"gif_url,omitempty"`
}

// AddGuestInput is the body of POST /api/guests.
type AddGuestInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

// SettingsPatch replaces whole blocks of the settings; nil blocks are kept.
type SettingsPatch struct {
	Event   *Event   `json:"event,omitempty"`
	Contact *Contact `json:"contact,omitempty"`
}

// # Validation Rules

// Field names reported in validation details.
const (
	FieldName     = "name"
	FieldPresence = "presence"
	FieldComment  = "comment"
	FieldGifURL   = "gif_url"
	FieldParentID = "parent_id"
	FieldType     = "type"
	FieldCategory = "category"
	FieldPage     = "page"
	FieldPerPage  = "per_page"
)

const (
	// MinNameLength is the shortest accepted author or guest name.
	MinNameLength = 2
	// MaxNameLength bounds names so slugs and links stay readable.
	MaxNameLength = 100
	// MaxBodyLength bounds a single comment.
	MaxBodyLength = 5000
	// DefaultMinBodyLength applies when no policy is configured.
	DefaultMinBodyLength = 1
)

// ValidatePage rejects page numbers and sizes below 1.
func ValidatePage(page, perPage int) error {
	return (&validate.Validator{}).
		Positive(FieldPage, page).
		Positive(FieldPerPage, perPage).
		Err()
}

// ValidateComment checks a new comment before anything is loaded.
func ValidateComment(input AddCommentInput, minBodyLength int) error {
	validator := &validate.Validator{}
	validator.
		MinLen(FieldName, input.Name, MinNameLength).
		MaxLen(FieldName, input.Name, MaxNameLength).
		MinLen(FieldComment, input.Body, max(minBodyLength, 1)).
		MaxLen(FieldComment, input.Body, MaxBodyLength).
		Custom(FieldPresence, !input.Presence.Valid(), "Must be ATTENDING or NOT_ATTENDING")

	if input.GifURL != nil && strings.TrimSpace(*input.GifURL) != "" {
		validator.URL(FieldGifURL, *input.GifURL)
	}
	if input.ParentID != nil {
		validator.Positive(FieldParentID, *input.ParentID)
	}

	return validator.Err()
}

// ValidateCommentPatch applies the creation rules to the fields being changed.
func ValidateCommentPatch(patch CommentPatch, minBodyLength int) error {
	validator := &validate.Validator{}

	if patch.Body != nil {
		validator.
			MinLen(FieldComment, *patch.Body, max(minBodyLength, 1)).
			MaxLen(FieldComment, *patch.Body, MaxBodyLength)
	}
	if patch.Presence != nil {
		validator.Custom(FieldPresence, !patch.Presence.Valid(), "Must be ATTENDING or NOT_ATTENDING")
	}
	if patch.GifURL != nil && strings.TrimSpace(*patch.GifURL) != "" {
		validator.URL(FieldGifURL, *patch.GifURL)
	}

	return validator.Err()
}

// ValidateGuest checks a new guest, including that the name yields a slug.
func ValidateGuest(input AddGuestInput) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength).
		Required(FieldType, input.Type).
		Required(FieldCategory, input.Category)

	if strings.TrimSpace(input.Name) != "" {
		validator.Custom(FieldName, slug.From(input.Name) == "", "Must contain at least one letter or digit")
	}

	return validator.Err()
}

// # Derived Fields

// InvitationLink builds the personal link of a guest: the base URL with the
// full name as the "to" query parameter. Spaces are encoded as %20.
func InvitationLink(baseURL, fullName string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(fullName), "+", "%20")
	return baseURL + "?to=" + encoded
}

// FullName joins the guest's honorific type and name.
func FullName(guestType, name string) string {
	return strings.TrimSpace(guestType) + " " + strings.TrimSpace(name)
}

// normalizeGif turns blank attachment URLs into no attachment.
func normalizeGif(gif *string) *string {
	if gif == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*gif)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// paginate cuts one page out of an already ordered slice.
func paginate[T any](items []T, page, perPage int) *Page[T] {
	meta := pagination.NewMeta(page, perPage, len(items))
	start, end := pagination.Window(page, perPage, len(items))

	window := make([]T, end-start)
	copy(window, items[start:end])

	return &Page[T]{
		Items:      window,
		Page:       meta.Page,
		PerPage:    meta.PerPage,
		Total:      meta.Total,
		TotalPages: meta.TotalPages,
		HasNext:    meta.HasNext,
		HasPrev:    meta.HasPrev,
	}
}

// Meta returns the page metadata in the shape of the pagination envelope.
func (p *Page[T]) Meta() pagination.Meta {
	return pagination.Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext,
		HasPrev:    p.HasPrev,
	}
}

// EmptyPage is the page served when nothing is known about a list.
func EmptyPage[T any](page, perPage int) *Page[T] {
	return paginate[T](nil, page, perPage)
}
