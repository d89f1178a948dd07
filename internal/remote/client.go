// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package remote implements [guestbook.Store] against the REST surface of an
origin server.

It is the transport the offline proxy sits on: network failures and 5xx
answers become STORAGE_ERROR, while 4xx answers are decoded back into the
typed error the origin raised (VALIDATION_ERROR, NOT_FOUND, CONFLICT).

# Retry Policy

Every attempt is bounded by the HTTP client timeout. Requests that are safe to
repeat (GET, guest DELETEs, PUT /api/settings) are retried up to Options.Retries times
with linear backoff. Comment creation, likes, edits, comment deletes, guest
creation and view counting are sent once.
*/
package remote

import (
	"bytes"
	stdctx "context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
	"github.com/hilmanmaulana1237/undangan-evan/pkg/pagination"
)

// DefaultBackoff is the delay added per retry attempt.
const DefaultBackoff = 200 * time.Millisecond

// Options configure the [Client].
type Options struct {
	BaseURL string
	Timeout time.Duration
	Retries int
	Backoff time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client is a [guestbook.Store] backed by HTTP calls.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

var _ guestbook.Store = (*Client)(nil)

// New validates the base URL and builds a [Client].
func New(options Options, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(options.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("remote: invalid upstream URL %q", options.BaseURL)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultUpstreamTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	backoff := options.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		http:    httpClient,
		retries: max(options.Retries, 0),
		backoff: backoff,
		logger:  logger,
	}, nil
}

/*
Budget is the longest a retried call can take: every attempt running into
the per-request timeout plus the linear backoff between attempts. Callers
that bound a whole call should allow at least this much.
*/
func (client *Client) Budget() time.Duration {
	perAttempt := client.http.Timeout
	if perAttempt <= 0 {
		perAttempt = constants.DefaultUpstreamTimeout
	}

	attempts := time.Duration(client.retries + 1)
	backoffSteps := time.Duration(client.retries * (client.retries + 1) / 2)
	return perAttempt*attempts + client.backoff*backoffSteps
}

// # Wire Format

// envelope covers every response shape of the REST surface.
type envelope struct {
	Data       json.RawMessage     `json:"data"`
	Pagination *pagination.Meta    `json:"pagination"`
	Deferred   bool                `json:"deferred"`
	Error      string              `json:"error"`
	Code       string              `json:"code"`
	Details    []apperr.FieldError `json:"details"`
}

// call describes one logical request.
type call struct {
	method     string
	path       string
	query      url.Values
	body       any
	idempotent bool
	// goneOnRetry treats NOT_FOUND on a retry as success: the earlier
	// attempt removed the resource but its response was lost.
	goneOnRetry bool
}

/*
do performs c and decodes the data field into out (when not nil).

Returns:
  - *envelope: The decoded response, for pagination metadata
  - error: a typed AppError, OFFLINE_DEFERRED if the upstream queued the write,
    or the context error if the caller gave up
*/
func (client *Client) do(context stdctx.Context, c call, out any) (*envelope, error) {
	var payload []byte
	if c.body != nil {
		encoded, err := json.Marshal(c.body)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("remote: encode %s %s: %w", c.method, c.path, err))
		}
		payload = encoded
	}

	attempts := 1
	if c.idempotent {
		attempts += client.retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(client.backoff * time.Duration(attempt))
			select {
			case <-context.Done():
				timer.Stop()
				return nil, context.Err()
			case <-timer.C:
			}
		}

		env, retry, err := client.attempt(context, c, payload)
		if attempt > 0 && c.goneOnRetry && apperr.IsNotFound(err) {
			return &envelope{}, nil
		}
		if err == nil || !retry {
			if err == nil || apperr.IsDeferred(err) {
				if out != nil && env != nil && len(env.Data) > 0 {
					if decodeErr := json.Unmarshal(env.Data, out); decodeErr != nil {
						return nil, apperr.StorageError(fmt.Errorf("remote: decode %s %s: %w", c.method, c.path, decodeErr))
					}
				}
			}
			return env, err
		}

		lastErr = err
		ctxutil.GetLogger(context, client.logger).Warn("upstream_attempt_failed",
			slog.String("method", c.method),
			slog.String("path", c.path),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}

	return nil, lastErr
}

// attempt sends one request. retry reports whether the failure is transient.
func (client *Client) attempt(context stdctx.Context, c call, payload []byte) (*envelope, bool, error) {
	target := client.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(context, c.method, target, body)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if requestID := ctxutil.GetRequestID(context); requestID != "" {
		request.Header.Set(constants.HeaderXRequestID, requestID)
	}

	response, err := client.http.Do(request)
	if err != nil {
		if ctxErr := context.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		return nil, true, apperr.StorageError(fmt.Errorf("remote: %s %s: %w", c.method, c.path, err))
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, constants.MaxRequestBodyBytes))
	if err != nil {
		return nil, true, apperr.StorageError(fmt.Errorf("remote: read %s %s: %w", c.method, c.path, err))
	}

	env := &envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && response.StatusCode < 500 {
			return nil, false, apperr.StorageError(fmt.Errorf("remote: decode %s %s: %w", c.method, c.path, err))
		}
	}

	switch {
	case response.StatusCode >= 500:
		return nil, true, apperr.StorageError(fmt.Errorf("remote: %s %s: upstream answered %d %s", c.method, c.path, response.StatusCode, env.Code))
	case response.StatusCode >= 400:
		return nil, false, apperr.FromStatus(response.StatusCode, env.Code, env.Error, env.Details)
	case env.Deferred:
		return env, false, apperr.Deferred()
	}

	return env, false, nil
}

// pageQuery encodes page and per_page.
func pageQuery(page, perPage int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
}

// toPage assembles a guestbook page from decoded items and metadata.
func toPage[T any](items []T, env *envelope, page, perPage int) *guestbook.Page[T] {
	if items == nil {
		items = []T{}
	}
	meta := pagination.NewMeta(page, perPage, len(items))
	if env != nil && env.Pagination != nil {
		meta = *env.Pagination
	}
	return &guestbook.Page[T]{
		Items:      items,
		Page:       meta.Page,
		PerPage:    meta.PerPage,
		Total:      meta.Total,
		TotalPages: meta.TotalPages,
		HasNext:    meta.HasNext,
		HasPrev:    meta.HasPrev,
	}
}

// # Comments

func (client *Client) listComments(context stdctx.Context, query url.Values, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	if err := guestbook.ValidatePage(page, perPage); err != nil {
		return nil, err
	}

	var items []guestbook.Comment
	env, err := client.do(context, call{
		method:     http.MethodGet,
		path:       "/api/comments",
		query:      query,
		idempotent: true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return toPage(items, env, page, perPage), nil
}

func (client *Client) ListComments(context stdctx.Context, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	return client.listComments(context, pageQuery(page, perPage), page, perPage)
}

func (client *Client) ListCommentsByPresence(context stdctx.Context, presence guestbook.Presence, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	if !presence.Valid() {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   guestbook.FieldPresence,
			Message: "Must be ATTENDING or NOT_ATTENDING",
		})
	}
	query := pageQuery(page, perPage)
	query.Set("presence", presence.String())
	return client.listComments(context, query, page, perPage)
}

func (client *Client) SearchComments(context stdctx.Context, text string, page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
	query := pageQuery(page, perPage)
	if strings.TrimSpace(text) != "" {
		query.Set("q", text)
	}
	return client.listComments(context, query, page, perPage)
}

func (client *Client) AddComment(context stdctx.Context, input guestbook.AddCommentInput) (*guestbook.Comment, error) {
	var comment guestbook.Comment
	_, err := client.do(context, call{method: http.MethodPost, path: "/api/comments", body: input}, &comment)
	if err != nil && !apperr.IsDeferred(err) {
		return nil, err
	}
	return &comment, err
}

// LikeComment returns a partial comment: the origin only answers with the uuid
// and the new like count.
func (client *Client) LikeComment(context stdctx.Context, ref string) (*guestbook.Comment, error) {
	var result guestbook.LikeResult
	_, err := client.do(context, call{
		method: http.MethodPut,
		path:   "/api/comments/" + url.PathEscape(ref) + "/like",
	}, &result)
	if err != nil && !apperr.IsDeferred(err) {
		return nil, err
	}
	return &guestbook.Comment{UUID: result.UUID, LikeCount: result.LikeCount}, err
}

// DeleteComment is sent once. A retry after a lost response would find the
// comment gone and could not return it.
func (client *Client) DeleteComment(context stdctx.Context, ref string) (*guestbook.Comment, error) {
	var comment guestbook.Comment
	_, err := client.do(context, call{
		method: http.MethodDelete,
		path:   "/api/comments/" + url.PathEscape(ref),
	}, &comment)
	if err != nil && !apperr.IsDeferred(err) {
		return nil, err
	}
	return &comment, err
}

func (client *Client) UpdateComment(context stdctx.Context, ref string, patch guestbook.CommentPatch) (*guestbook.Comment, error) {
	var comment guestbook.Comment
	_, err := client.do(context, call{
		method: http.MethodPatch,
		path:   "/api/comments/" + url.PathEscape(ref),
		body:   patch,
	}, &comment)
	if err != nil && !apperr.IsDeferred(err) {
		return nil, err
	}
	return &comment, err
}

// # Guests

func (client *Client) AddGuest(context stdctx.Context, input guestbook.AddGuestInput) (*guestbook.Guest, error) {
	var guest guestbook.Guest
	_, err := client.do(context, call{method: http.MethodPost, path: "/api/guests", body: input}, &guest)
	if err != nil && !apperr.IsDeferred(err) {
		return nil, err
	}
	return &guest, err
}

func (client *Client) ListGuests(context stdctx.Context, page, perPage int) (*guestbook.Page[guestbook.Guest], error) {
	if err := guestbook.ValidatePage(page, perPage); err != nil {
		return nil, err
	}

	var items []guestbook.Guest
	env, err := client.do(context, call{
		method:     http.MethodGet,
		path:       "/api/guests",
		query:      pageQuery(page, perPage),
		idempotent: true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return toPage(items, env, page, perPage), nil
}

func (client *Client) DeleteGuest(context stdctx.Context, id int) error {
	_, err := client.do(context, call{
		method:      http.MethodDelete,
		path:        "/api/guests/" + strconv.Itoa(id),
		idempotent:  true,
		goneOnRetry: true,
	}, nil)
	return err
}

func (client *Client) ClearGuests(context stdctx.Context) (int, error) {
	var result guestbook.GuestsCleared
	_, err := client.do(context, call{method: http.MethodDelete, path: "/api/guests", idempotent: true}, &result)
	return result.DeletedCount, err
}

// # Settings & Stats

func (client *Client) GetSettings(context stdctx.Context) (*guestbook.Settings, error) {
	var settings guestbook.Settings
	if _, err := client.do(context, call{method: http.MethodGet, path: "/api/settings", idempotent: true}, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (client *Client) UpdateSettings(context stdctx.Context, patch guestbook.SettingsPatch) (*guestbook.Settings, error) {
	var settings guestbook.Settings
	_, err := client.do(context, call{
		method:     http.MethodPut,
		path:       "/api/settings",
		body:       patch,
		idempotent: true,
	}, &settings)
	if err != nil && !apperr.IsDeferred(err) {
		return nil, err
	}
	return &settings, err
}

func (client *Client) IncrementViewCount(context stdctx.Context) error {
	_, err := client.do(context, call{method: http.MethodPost, path: "/api/views"}, nil)
	return err
}

func (client *Client) Overview(context stdctx.Context) (*guestbook.Overview, error) {
	var overview guestbook.Overview
	if _, err := client.do(context, call{method: http.MethodGet, path: "/api/stats", idempotent: true}, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Ping checks the origin's liveness endpoint once, without retries.
func (client *Client) Ping(context stdctx.Context) error {
	_, _, err := client.attempt(context, call{method: http.MethodGet, path: "/health"}, nil)
	return err
}
