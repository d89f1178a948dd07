// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmanmaulana1237/undangan-evan/internal/guestbook"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
)

// tickingClock advances one second on every reading so creation order is
// reflected in created_at.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newService(t *testing.T) (*guestbook.Service, *docstore.MemoryBackend) {
	t.Helper()
	backend := docstore.NewMemoryBackend()
	clock := &tickingClock{now: time.Date(2025, 9, 14, 8, 0, 0, 0, time.UTC)}
	service := guestbook.NewService(backend, nil, guestbook.Options{
		MinBodyLength:     1,
		InvitationBaseURL: "https://undangan.example/index.html",
		Now:               clock.Now,
	})
	require.NoError(t, service.Init(context.Background()))
	return service, backend
}

func addComment(t *testing.T, service *guestbook.Service, name string, presence guestbook.Presence, body string) *guestbook.Comment {
	t.Helper()
	comment, err := service.AddComment(context.Background(), guestbook.AddCommentInput{
		Name:     name,
		Presence: presence,
		Body:     body,
	})
	require.NoError(t, err)
	return comment
}

func reply(t *testing.T, service *guestbook.Service, parent int, body string) *guestbook.Comment {
	t.Helper()
	comment, err := service.AddComment(context.Background(), guestbook.AddCommentInput{
		Name:     "Host",
		Presence: guestbook.Attending,
		Body:     body,
		ParentID: &parent,
	})
	require.NoError(t, err)
	return comment
}

// rawTotals reads comments.total and stats.totalComments straight from storage.
func rawTotals(t *testing.T, backend *docstore.MemoryBackend) (collection, stats int) {
	t.Helper()
	ctx := context.Background()

	data, err := backend.Load(ctx, constants.DocComments)
	require.NoError(t, err)
	var doc struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	data, err = backend.Load(ctx, constants.DocSettings)
	require.NoError(t, err)
	var settings guestbook.Settings
	require.NoError(t, json.Unmarshal(data, &settings))

	return doc.Total, settings.Stats.TotalComments
}

/*
TestService_AddComment_Scenario walks the empty-store scenario end to end.
*/
func TestService_AddComment_Scenario(t *testing.T) {
	service, _ := newService(t)

	created := addComment(t, service, "Ana", guestbook.Attending, "Congrats!")

	page, err := service.ListComments(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	got := page.Items[0]
	assert.Equal(t, "Ana", got.AuthorName)
	assert.Equal(t, "ana", got.AuthorSlug)
	assert.Equal(t, guestbook.Attending, got.Presence)
	assert.Equal(t, "Congrats!", got.Body)
	assert.Zero(t, got.LikeCount)
	assert.True(t, got.IsParent)
	assert.False(t, got.IsAdmin)
	assert.Equal(t, created.UUID, got.UUID)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)

	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
}

/*
TestService_AddComment_NewestFirst checks that a new comment always heads the
first page, whatever the page size.
*/
func TestService_AddComment_NewestFirst(t *testing.T) {
	service, _ := newService(t)

	for i := 0; i < 7; i++ {
		added := addComment(t, service, fmt.Sprintf("Guest %d", i), guestbook.NotAttending, "Selamat")

		for _, perPage := range []int{1, 3, 50} {
			page, err := service.ListComments(context.Background(), 1, perPage)
			require.NoError(t, err)
			require.NotEmpty(t, page.Items)
			assert.Equal(t, added.UUID, page.Items[0].UUID)
		}
	}
}

/*
TestService_Totals verifies that the collection total and the stats counter
track the whole tree while list totals count top-level comments only.
*/
func TestService_Totals(t *testing.T) {
	service, backend := newService(t)
	ctx := context.Background()

	a := addComment(t, service, "Ana", guestbook.Attending, "one")
	b := addComment(t, service, "Budi", guestbook.NotAttending, "two")
	reply(t, service, a.ID, "thanks Ana")
	reply(t, service, a.ID, "see you")
	r := reply(t, service, b.ID, "thanks Budi")

	collection, stats := rawTotals(t, backend)
	assert.Equal(t, 5, collection)
	assert.Equal(t, 5, stats)

	page, err := service.ListComments(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	// Deleting a reply removes one node.
	_, err = service.DeleteComment(ctx, r.UUID)
	require.NoError(t, err)
	collection, stats = rawTotals(t, backend)
	assert.Equal(t, 4, collection)
	assert.Equal(t, 4, stats)

	// Deleting a parent removes it and its two replies.
	removed, err := service.DeleteComment(ctx, fmt.Sprint(a.ID))
	require.NoError(t, err)
	assert.Len(t, removed.Replies, 2)
	collection, stats = rawTotals(t, backend)
	assert.Equal(t, 1, collection)
	assert.Equal(t, 1, stats)

	_, err = service.DeleteComment(ctx, a.UUID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_Replies covers reply placement and the one-level limit.
*/
func TestService_Replies(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	parent := addComment(t, service, "Ana", guestbook.Attending, "hello")
	addComment(t, service, "Budi", guestbook.Attending, "later")
	child := reply(t, service, parent.ID, "hi")

	assert.False(t, child.IsParent)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	page, err := service.ListComments(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Budi", page.Items[0].AuthorName, "a reply must not move its parent")
	require.Len(t, page.Items[1].Replies, 1)
	assert.Equal(t, child.UUID, page.Items[1].Replies[0].UUID)

	// Replies can only target top-level comments.
	nested := child.ID
	_, err = service.AddComment(ctx, guestbook.AddCommentInput{
		Name: "Citra", Presence: guestbook.Attending, Body: "deep", ParentID: &nested,
	})
	assert.True(t, apperr.IsNotFound(err))

	missing := 999
	_, err = service.AddComment(ctx, guestbook.AddCommentInput{
		Name: "Citra", Presence: guestbook.Attending, Body: "lost", ParentID: &missing,
	})
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_PaginationExhaustive concatenates every page and compares the
result with the full list, with and without a presence filter.
*/
func TestService_PaginationExhaustive(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 23; i++ {
		presence := guestbook.Attending
		if i%3 == 0 {
			presence = guestbook.NotAttending
		}
		addComment(t, service, fmt.Sprintf("Guest %02d", i), presence, "wish")
	}

	fetchers := map[string]func(page, perPage int) (*guestbook.Page[guestbook.Comment], error){
		"all": func(page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
			return service.ListComments(ctx, page, perPage)
		},
		"attending": func(page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
			return service.ListCommentsByPresence(ctx, guestbook.Attending, page, perPage)
		},
		"not_attending": func(page, perPage int) (*guestbook.Page[guestbook.Comment], error) {
			return service.ListCommentsByPresence(ctx, guestbook.NotAttending, page, perPage)
		},
	}

	for name, fetch := range fetchers {
		t.Run(name, func(t *testing.T) {
			full, err := fetch(1, 1000)
			require.NoError(t, err)

			for _, perPage := range []int{1, 4, 5, 23, 30} {
				first, err := fetch(1, perPage)
				require.NoError(t, err)
				assert.Equal(t, full.Total, first.Total)

				var joined []guestbook.Comment
				for page := 1; page <= first.TotalPages; page++ {
					window, err := fetch(page, perPage)
					require.NoError(t, err)
					joined = append(joined, window.Items...)
				}

				if diff := cmp.Diff(full.Items, joined); diff != "" {
					t.Errorf("perPage=%d pages differ from full list (-want +got):\n%s", perPage, diff)
				}

				past, err := fetch(first.TotalPages+1, perPage)
				require.NoError(t, err)
				assert.Empty(t, past.Items)
				assert.Equal(t, first.TotalPages, past.TotalPages)
			}
		})
	}
}

/*
TestService_ListComments_ExtremePages accepts any positive page and size:
a page far past the end is empty and a huge size returns everything on one page.
*/
func TestService_ListComments_ExtremePages(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	for _, name := range []string{"Ayu", "Bima", "Citra"} {
		addComment(t, service, name, guestbook.Attending, "selamat")
	}

	far, err := service.ListComments(ctx, 1<<62+1, 4)
	require.NoError(t, err)
	assert.Empty(t, far.Items)
	assert.Equal(t, 1, far.TotalPages)
	assert.Equal(t, 3, far.Total)

	all, err := service.ListComments(ctx, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Equal(t, 1, all.TotalPages)
	assert.False(t, all.HasNext)
}

/*
TestService_ListComments_Validation rejects non-positive page arguments.
*/
func TestService_ListComments_Validation(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		page    int
		perPage int
	}{
		{"zero_page", 0, 10},
		{"negative_page", -1, 10},
		{"zero_per_page", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ListComments(ctx, tt.page, tt.perPage)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

			_, err = service.ListGuests(ctx, tt.page, tt.perPage)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}

	_, err := service.ListCommentsByPresence(ctx, guestbook.PresenceUnknown, 1, 10)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestService_AddComment_Validation checks that invalid input never reaches storage.
*/
func TestService_AddComment_Validation(t *testing.T) {
	service, backend := newService(t)
	gif := "not a url"

	tests := []struct {
		name  string
		input guestbook.AddCommentInput
		field string
	}{
		{"short_name", guestbook.AddCommentInput{Name: " A ", Presence: guestbook.Attending, Body: "hi"}, guestbook.FieldName},
		{"blank_body", guestbook.AddCommentInput{Name: "Ana", Presence: guestbook.Attending, Body: "   "}, guestbook.FieldComment},
		{"no_presence", guestbook.AddCommentInput{Name: "Ana", Body: "hi"}, guestbook.FieldPresence},
		{"bad_gif", guestbook.AddCommentInput{Name: "Ana", Presence: guestbook.Attending, Body: "hi", GifURL: &gif}, guestbook.FieldGifURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AddComment(context.Background(), tt.input)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			require.Len(t, ae.Details, 1)
			assert.Equal(t, tt.field, ae.Details[0].Field)
		})
	}

	assert.Equal(t, 1, backend.Saves(constants.DocComments), "only Init may have written")
}

func TestService_MinBodyLengthPolicy(t *testing.T) {
	service := guestbook.NewService(docstore.NewMemoryBackend(), nil, guestbook.Options{MinBodyLength: 5})

	_, err := service.AddComment(context.Background(), guestbook.AddCommentInput{
		Name: "Ana", Presence: guestbook.Attending, Body: "hey",
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = service.AddComment(context.Background(), guestbook.AddCommentInput{
		Name: "Ana", Presence: guestbook.Attending, Body: "hello",
	})
	assert.NoError(t, err)
}

/*
TestService_LikeComment verifies that likes are not idempotent and reach replies.
*/
func TestService_LikeComment(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	parent := addComment(t, service, "Ana", guestbook.Attending, "hello")
	child := reply(t, service, parent.ID, "hi")

	_, err := service.LikeComment(ctx, parent.UUID)
	require.NoError(t, err)
	liked, err := service.LikeComment(ctx, parent.UUID)
	require.NoError(t, err)
	assert.Equal(t, 2, liked.LikeCount)

	liked, err = service.LikeComment(ctx, fmt.Sprint(child.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	_, err = service.LikeComment(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_UpdateComment covers partial updates and updated_at refresh.
*/
func TestService_UpdateComment(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	gif := "https://media.tenor.com/a.gif"
	created, err := service.AddComment(ctx, guestbook.AddCommentInput{
		Name: "Ana", Presence: guestbook.Attending, Body: "hello", GifURL: &gif,
	})
	require.NoError(t, err)

	body := "  edited  "
	absent := guestbook.NotAttending
	updated, err := service.UpdateComment(ctx, created.UUID, guestbook.CommentPatch{Body: &body, Presence: &absent})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)
	assert.Equal(t, guestbook.NotAttending, updated.Presence)
	require.NotNil(t, updated.GifURL)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	empty := ""
	updated, err = service.UpdateComment(ctx, created.UUID, guestbook.CommentPatch{GifURL: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.GifURL)

	before := updated.UpdatedAt
	updated, err = service.UpdateComment(ctx, created.UUID, guestbook.CommentPatch{})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(before))

	blank := " "
	_, err = service.UpdateComment(ctx, created.UUID, guestbook.CommentPatch{Body: &blank})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = service.UpdateComment(ctx, "missing", guestbook.CommentPatch{})
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_SearchComments matches author and body without regard to case.
*/
func TestService_SearchComments(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	addComment(t, service, "Ana", guestbook.Attending, "Selamat menempuh hidup baru")
	addComment(t, service, "Budi", guestbook.Attending, "Barakallah")
	addComment(t, service, "Citra", guestbook.NotAttending, "maaf tidak bisa hadir, SELAMAT ya")

	page, err := service.SearchComments(ctx, "selamat", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = service.SearchComments(ctx, "BUDI", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Budi", page.Items[0].AuthorName)

	page, err = service.SearchComments(ctx, "  ", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

/*
TestService_Guests covers creation, derived fields, conflicts and deletion.
*/
func TestService_Guests(t *testing.T) {
	service, backend := newService(t)
	ctx := context.Background()

	guest, err := service.AddGuest(ctx, guestbook.AddGuestInput{Name: " Budi Santoso ", Type: "Bapak", Category: "Keluarga"})
	require.NoError(t, err)
	assert.Equal(t, 1, guest.ID)
	assert.Equal(t, "budi-santoso", guest.Slug)
	assert.Equal(t, "Bapak Budi Santoso", guest.FullName)
	assert.Equal(t, "https://undangan.example/index.html?to=Bapak%20Budi%20Santoso", guest.InvitationLink)

	before, err := backend.Load(ctx, constants.DocGuests)
	require.NoError(t, err)

	_, err = service.AddGuest(ctx, guestbook.AddGuestInput{Name: "budi  SANTOSO!", Type: "Sdr", Category: "Teman"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	after, err := backend.Load(ctx, constants.DocGuests)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "a conflict must leave the collection unchanged")

	second, err := service.AddGuest(ctx, guestbook.AddGuestInput{Name: "Sari", Type: "Ibu", Category: "Teman"})
	require.NoError(t, err)

	page, err := service.ListGuests(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID, "guests are listed newest first")

	require.NoError(t, service.DeleteGuest(ctx, guest.ID))
	assert.True(t, apperr.IsNotFound(service.DeleteGuest(ctx, guest.ID)))

	settings, err := service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settings.Stats.TotalGuests)

	deleted, err := service.ClearGuests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	settings, err = service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Zero(t, settings.Stats.TotalGuests)

	// The id sequence restarts after a clear.
	again, err := service.AddGuest(ctx, guestbook.AddGuestInput{Name: "Sari", Type: "Ibu", Category: "Teman"})
	require.NoError(t, err)
	assert.Equal(t, 1, again.ID)
}

func TestService_AddGuest_Validation(t *testing.T) {
	service, _ := newService(t)

	tests := []struct {
		name  string
		input guestbook.AddGuestInput
	}{
		{"missing_name", guestbook.AddGuestInput{Type: "Bapak", Category: "Keluarga"}},
		{"missing_type", guestbook.AddGuestInput{Name: "Budi", Category: "Keluarga"}},
		{"missing_category", guestbook.AddGuestInput{Name: "Budi", Type: "Bapak"}},
		{"no_slug", guestbook.AddGuestInput{Name: "!!!", Type: "Bapak", Category: "Keluarga"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AddGuest(context.Background(), tt.input)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}
}

/*
TestService_UpdateSettings_ContactOnly replaces the contact block and leaves
the event block untouched.
*/
func TestService_UpdateSettings_ContactOnly(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	event := guestbook.Event{Title: "Khitanan Ahmad", Date: "2025-09-14", Time: "08:00:00"}
	_, err := service.UpdateSettings(ctx, guestbook.SettingsPatch{Event: &event})
	require.NoError(t, err)

	updated, err := service.UpdateSettings(ctx, guestbook.SettingsPatch{Contact: &guestbook.Contact{Phone: "0800"}})
	require.NoError(t, err)

	assert.Equal(t, event, updated.Event)
	assert.Equal(t, guestbook.Contact{Phone: "0800"}, updated.Contact)
	require.NotNil(t, updated.UpdatedAt)

	stored, err := service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated.Event, stored.Event)
	assert.Equal(t, updated.Contact, stored.Contact)
}

func TestService_IncrementViewCount(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.IncrementViewCount(ctx))
	}

	settings, err := service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, settings.Stats.TotalViews)
}

/*
TestService_StorageErrors covers both halves of the error policy: reads fall
back to defaults, mutations fail without writing.
*/
func TestService_StorageErrors(t *testing.T) {
	service, backend := newService(t)
	ctx := context.Background()
	addComment(t, service, "Ana", guestbook.Attending, "hello")

	boom := errors.New("disk unreadable")
	backend.FailLoad(constants.DocComments, boom)

	page, err := service.ListComments(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)

	_, err = service.AddComment(ctx, guestbook.AddCommentInput{Name: "Budi", Presence: guestbook.Attending, Body: "hi"})
	assert.True(t, apperr.HasCode(err, apperr.CodeStorage))

	backend.FailLoad(constants.DocComments, nil)
	backend.Put(constants.DocSettings, []byte("{broken"))

	settings, err := service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Undangan Pernikahan", settings.Event.Title)

	require.Error(t, service.IncrementViewCount(ctx))
}

/*
TestService_SettingsWriteFailureRollsBack ensures that a comment is not kept
when the stats write fails.
*/
func TestService_SettingsWriteFailureRollsBack(t *testing.T) {
	service, backend := newService(t)
	ctx := context.Background()
	addComment(t, service, "Ana", guestbook.Attending, "hello")

	before, err := backend.Load(ctx, constants.DocComments)
	require.NoError(t, err)

	backend.FailSave(constants.DocSettings, errors.New("read-only file system"))
	_, err = service.AddComment(ctx, guestbook.AddCommentInput{Name: "Budi", Presence: guestbook.Attending, Body: "hi"})
	assert.True(t, apperr.HasCode(err, apperr.CodeStorage))

	after, err := backend.Load(ctx, constants.DocComments)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

// settingsOutage is a file backend whose settings writes can be made to fail.
type settingsOutage struct {
	*docstore.FileBackend
	failing atomic.Bool
}

func (b *settingsOutage) Save(ctx context.Context, name string, data []byte) error {
	if name == constants.DocSettings && b.failing.Load() {
		return errors.New("disk full")
	}
	return b.FileBackend.Save(ctx, name, data)
}

/*
TestService_RollbackLeavesNoBackup makes sure a rolled back comment never
reappears: after the collection file is corrupted, the backup it falls back
to still agrees with the stored stats.
*/
func TestService_RollbackLeavesNoBackup(t *testing.T) {
	ctx := context.Background()
	files, err := docstore.NewFileBackend(t.TempDir(), 10, nil)
	require.NoError(t, err)
	backend := &settingsOutage{FileBackend: files}

	service := guestbook.NewService(backend, nil, guestbook.Options{})
	require.NoError(t, service.Init(ctx))
	addComment(t, service, "Ana", guestbook.Attending, "hello")

	backend.failing.Store(true)
	_, err = service.AddComment(ctx, guestbook.AddCommentInput{Name: "Budi", Presence: guestbook.Attending, Body: "hi"})
	require.True(t, apperr.HasCode(err, apperr.CodeStorage))
	backend.failing.Store(false)

	require.NoError(t, os.WriteFile(files.Path(constants.DocComments), []byte("{"), 0o644))

	page, err := service.ListComments(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Ana", page.Items[0].AuthorName)

	settings, err := service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, page.Total, settings.Stats.TotalComments)
}

/*
TestService_CancelledContext checks that a cancelled mutation has no effect.
*/
func TestService_CancelledContext(t *testing.T) {
	service, backend := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.AddComment(ctx, guestbook.AddCommentInput{Name: "Ana", Presence: guestbook.Attending, Body: "hi"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = service.ListComments(ctx, 1, 10)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, backend.Saves(constants.DocComments))
}

/*
TestService_ConcurrentWrites runs mutations in parallel and checks that no
update is lost and ids stay unique.
*/
func TestService_ConcurrentWrites(t *testing.T) {
	service, backend := newService(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.AddComment(ctx, guestbook.AddCommentInput{
				Name: fmt.Sprintf("Guest %d", i), Presence: guestbook.Attending, Body: "hi",
			})
			assert.NoError(t, err)
			assert.NoError(t, service.IncrementViewCount(ctx))
		}(i)
	}
	wg.Wait()

	page, err := service.ListComments(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, page.Items, writers)

	ids := map[int]bool{}
	for _, c := range page.Items {
		ids[c.ID] = true
	}
	assert.Len(t, ids, writers)

	collection, stats := rawTotals(t, backend)
	assert.Equal(t, writers, collection)
	assert.Equal(t, writers, stats)

	settings, err := service.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers, settings.Stats.TotalViews)
}

/*
TestService_Overview checks the dashboard aggregates.
*/
func TestService_Overview(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	a := addComment(t, service, "Ana", guestbook.Attending, "one")
	addComment(t, service, "Budi", guestbook.NotAttending, "two")
	for i := 0; i < 5; i++ {
		addComment(t, service, fmt.Sprintf("Guest %d", i), guestbook.Attending, "more")
	}
	reply(t, service, a.ID, "thanks")
	_, err := service.LikeComment(ctx, a.UUID)
	require.NoError(t, err)

	for _, g := range []guestbook.AddGuestInput{
		{Name: "Sari", Type: "Ibu", Category: "Keluarga"},
		{Name: "Tono", Type: "Bapak", Category: "Keluarga"},
		{Name: "Umar", Type: "Sdr", Category: "Teman"},
	} {
		_, err := service.AddGuest(ctx, g)
		require.NoError(t, err)
	}
	require.NoError(t, service.IncrementViewCount(ctx))

	overview, err := service.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 8, overview.TotalComments)
	assert.Equal(t, 3, overview.TotalGuests)
	assert.Equal(t, 1, overview.TotalViews)
	assert.Equal(t, 7, overview.Attending)
	assert.Equal(t, 1, overview.NotAttending)
	assert.Equal(t, 1, overview.TotalLikes)
	assert.Len(t, overview.LatestComments, guestbook.LatestCommentsLimit)
	assert.Equal(t, map[string]int{"Keluarga": 2, "Teman": 1}, overview.PopularCategories)
}

/*
TestService_Init creates missing documents with the configured defaults and
leaves existing ones alone.
*/
func TestService_Init(t *testing.T) {
	backend := docstore.NewMemoryBackend()
	backend.Put(constants.DocGuests, []byte(`{"guests":[],"total":0,"lastId":7}`))

	seed := guestbook.DefaultSettings(time.Now())
	seed.Event.Title = "Khitanan Ahmad"
	seed.Stats.TotalViews = 99

	service := guestbook.NewService(backend, nil, guestbook.Options{Defaults: &seed})
	require.NoError(t, service.Init(context.Background()))

	assert.Equal(t, 1, backend.Saves(constants.DocComments))
	assert.Equal(t, 0, backend.Saves(constants.DocGuests))

	settings, err := service.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Khitanan Ahmad", settings.Event.Title)
	assert.Zero(t, settings.Stats.TotalViews, "seed stats are ignored")

	guest, err := service.AddGuest(context.Background(), guestbook.AddGuestInput{Name: "Sari", Type: "Ibu", Category: "Teman"})
	require.NoError(t, err)
	assert.Equal(t, 8, guest.ID)
}
