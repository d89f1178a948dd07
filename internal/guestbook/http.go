// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/middleware"
	requestutil "github.com/hilmanmaulana1237/undangan-evan/internal/platform/request"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/respond"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/validate"
	"github.com/hilmanmaulana1237/undangan-evan/pkg/pagination"
)

// # Response Bodies

// LikeResult is the body of PUT /api/comments/{ref}/like.
type LikeResult struct {
	UUID      string `json:"uuid"`
	LikeCount int    `json:"like_count"`
}

// GuestDeleted is the body of DELETE /api/guests/{id}.
type GuestDeleted struct {
	Deleted int `json:"deleted"`
}

// GuestsCleared is the body of DELETE /api/guests.
type GuestsCleared struct {
	DeletedCount int `json:"deleted_count"`
}

// allGuests is the page size used when the guest list is requested unpaginated.
const allGuests = math.MaxInt32

// # HTTP Handler

// Handler exposes any [Store] over the REST surface.
type Handler struct {
	store Store
}

// NewHandler constructs a new guestbook [Handler].
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the guestbook endpoints (the caller adds the /api prefix).
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/comments", func(router chi.Router) {
		router.Get("/", handler.listComments)
		router.Post("/", handler.addComment)
		router.Put("/{ref}/like", handler.likeComment)
		router.Patch("/{ref}", handler.updateComment)
		router.Delete("/{ref}", handler.deleteComment)
	})

	router.Route("/guests", func(router chi.Router) {
		router.Get("/", handler.listGuests)
		router.Post("/", handler.addGuest)
		router.Delete("/", handler.clearGuests)
		router.Delete("/{id}", handler.deleteGuest)
	})

	router.Get("/settings", handler.getSettings)
	router.Put("/settings", handler.updateSettings)
	router.Post("/views", handler.incrementViews)
	router.Get("/stats", handler.overview)
}

// # Comments

// listComments serves ?presence= as a filter and ?q= as a search. When both
// are given, presence wins.
func (handler *Handler) listComments(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	var (
		page *Page[Comment]
		err  error
	)

	switch {
	case query.Get(FieldPresence) != "":
		presence, parseErr := ParsePresence(query.Get(FieldPresence))
		if parseErr != nil {
			respond.Error(writer, request, validate.RequiredError(FieldPresence, "Must be ATTENDING or NOT_ATTENDING"))
			return
		}
		page, err = handler.store.ListCommentsByPresence(request.Context(), presence, params.Page, params.Limit)
	case query.Get("q") != "":
		page, err = handler.store.SearchComments(request.Context(), query.Get("q"), params.Page, params.Limit)
	default:
		page, err = handler.store.ListComments(request.Context(), params.Page, params.Limit)
	}

	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta())
}

func (handler *Handler) addComment(writer http.ResponseWriter, request *http.Request) {
	var input AddCommentInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.IP = middleware.RealIP(request)
	input.UserAgent = request.UserAgent()

	comment, err := handler.store.AddComment(request.Context(), input)
	settle(writer, request, comment, err, respond.Created)
}

func (handler *Handler) likeComment(writer http.ResponseWriter, request *http.Request) {
	comment, err := handler.store.LikeComment(request.Context(), requestutil.Param(request, "ref"))

	var result *LikeResult
	if comment != nil {
		result = &LikeResult{UUID: comment.UUID, LikeCount: comment.LikeCount}
	}
	settle(writer, request, result, err, respond.OK)
}

func (handler *Handler) updateComment(writer http.ResponseWriter, request *http.Request) {
	var patch CommentPatch
	if err := requestutil.DecodeJSON(writer, request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.store.UpdateComment(request.Context(), requestutil.Param(request, "ref"), patch)
	settle(writer, request, comment, err, respond.OK)
}

func (handler *Handler) deleteComment(writer http.ResponseWriter, request *http.Request) {
	comment, err := handler.store.DeleteComment(request.Context(), requestutil.Param(request, "ref"))
	settle(writer, request, comment, err, respond.OK)
}

// # Guests

// listGuests answers a plain array, or the paginated envelope when ?page= is set.
func (handler *Handler) listGuests(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Query().Get(FieldPage) == "" {
		page, err := handler.store.ListGuests(request.Context(), 1, allGuests)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, page.Items)
		return
	}

	params := pagination.FromRequest(request)
	page, err := handler.store.ListGuests(request.Context(), params.Page, params.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta())
}

func (handler *Handler) addGuest(writer http.ResponseWriter, request *http.Request) {
	var input AddGuestInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	guest, err := handler.store.AddGuest(request.Context(), input)
	settle(writer, request, guest, err, respond.Created)
}

func (handler *Handler) deleteGuest(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.store.DeleteGuest(request.Context(), id)
	settle(writer, request, GuestDeleted{Deleted: id}, err, respond.OK)
}

func (handler *Handler) clearGuests(writer http.ResponseWriter, request *http.Request) {
	deleted, err := handler.store.ClearGuests(request.Context())
	settle(writer, request, GuestsCleared{DeletedCount: deleted}, err, respond.OK)
}

// # Settings & Stats

func (handler *Handler) getSettings(writer http.ResponseWriter, request *http.Request) {
	settings, err := handler.store.GetSettings(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, settings)
}

func (handler *Handler) updateSettings(writer http.ResponseWriter, request *http.Request) {
	var patch SettingsPatch
	if err := requestutil.DecodeJSON(writer, request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	settings, err := handler.store.UpdateSettings(request.Context(), patch)
	settle(writer, request, settings, err, respond.OK)
}

// incrementViews is fire-and-forget: a queued view is still a 204.
func (handler *Handler) incrementViews(writer http.ResponseWriter, request *http.Request) {
	if err := handler.store.IncrementViewCount(request.Context()); err != nil && !apperr.IsDeferred(err) {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) overview(writer http.ResponseWriter, request *http.Request) {
	overview, err := handler.store.Overview(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, overview)
}

// settle writes the outcome of a mutation. A write queued by the offline
// proxy answers 202 with its placeholder.
func settle(writer http.ResponseWriter, request *http.Request, data any, err error, success func(http.ResponseWriter, any)) {
	switch {
	case apperr.IsDeferred(err):
		respond.Deferred(writer, data)
	case err != nil:
		respond.Error(writer, request, err)
	default:
		success(writer, data)
	}
}
