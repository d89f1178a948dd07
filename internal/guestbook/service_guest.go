// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
	"github.com/hilmanmaulana1237/undangan-evan/pkg/slug"
)

// # Guest Queries

func (service *Service) readGuests(context context.Context) (*guestsDoc, error) {
	doc := newGuestsDoc()
	err := service.read(context, constants.DocGuests, doc, func() { doc = newGuestsDoc() })
	if err != nil {
		return nil, err
	}
	doc.normalize()
	return doc, nil
}

// ListGuests returns one page of guests, newest first.
func (service *Service) ListGuests(context context.Context, page, perPage int) (*Page[Guest], error) {
	if err := ValidatePage(page, perPage); err != nil {
		return nil, err
	}

	service.guestsMu.RLock()
	defer service.guestsMu.RUnlock()

	doc, err := service.readGuests(context)
	if err != nil {
		return nil, err
	}

	return paginate(doc.sortedGuests(), page, perPage), nil
}

// # Guest Mutations

/*
AddGuest stores a new guest with its derived slug, full name and invitation
link.

Returns:
  - *Guest: The stored guest
  - error: VALIDATION_ERROR, CONFLICT when the slug is taken, or STORAGE_ERROR
*/
func (service *Service) AddGuest(context context.Context, input AddGuestInput) (*Guest, error) {
	if err := ValidateGuest(input); err != nil {
		return nil, err
	}

	service.guestsMu.Lock()
	defer service.guestsMu.Unlock()
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	doc := newGuestsDoc()
	pre, err := service.load(context, constants.DocGuests, doc)
	if err != nil {
		return nil, err
	}
	doc.normalize()

	settings, err := service.loadSettings(context)
	if err != nil {
		return nil, err
	}

	guestSlug := slug.From(input.Name)
	if slices.ContainsFunc(doc.Guests, func(g Guest) bool { return g.Slug == guestSlug }) {
		return nil, apperr.Conflict("A guest with this name already exists")
	}

	doc.LastID++
	guest := NewGuest(input, doc.LastID, service.options.InvitationBaseURL, service.options.Now().UTC())

	doc.Guests = append(doc.Guests, guest)
	doc.Total = len(doc.Guests)
	settings.Stats.TotalGuests = doc.Total

	if err := service.commit(context, constants.DocGuests, pre, doc, settings); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context, service.logger).Info("guest_created",
		slog.Int("id", guest.ID),
		slog.String("slug", guest.Slug),
	)

	return &guest, nil
}

// DeleteGuest removes one guest and decrements the guest counter.
func (service *Service) DeleteGuest(context context.Context, id int) error {
	service.guestsMu.Lock()
	defer service.guestsMu.Unlock()
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	doc := newGuestsDoc()
	pre, err := service.load(context, constants.DocGuests, doc)
	if err != nil {
		return err
	}
	doc.normalize()

	settings, err := service.loadSettings(context)
	if err != nil {
		return err
	}

	index := slices.IndexFunc(doc.Guests, func(g Guest) bool { return g.ID == id })
	if index < 0 {
		return apperr.NotFound("Guest")
	}

	doc.Guests = slices.Delete(doc.Guests, index, index+1)
	doc.Total = len(doc.Guests)
	settings.Stats.TotalGuests = doc.Total

	if err := service.commit(context, constants.DocGuests, pre, doc, settings); err != nil {
		return err
	}

	ctxutil.GetLogger(context, service.logger).Info("guest_deleted", slog.Int("id", id))
	return nil
}

/*
ClearGuests empties the guest list and resets its id sequence.

Returns:
  - int: Number of guests removed
  - error: STORAGE_ERROR
*/
func (service *Service) ClearGuests(context context.Context) (int, error) {
	service.guestsMu.Lock()
	defer service.guestsMu.Unlock()
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	doc := newGuestsDoc()
	pre, err := service.load(context, constants.DocGuests, doc)
	if err != nil {
		return 0, err
	}
	doc.normalize()

	settings, err := service.loadSettings(context)
	if err != nil {
		return 0, err
	}

	deleted := len(doc.Guests)
	settings.Stats.TotalGuests = 0

	if err := service.commit(context, constants.DocGuests, pre, newGuestsDoc(), settings); err != nil {
		return 0, err
	}

	ctxutil.GetLogger(context, service.logger).Info("guests_cleared", slog.Int("deleted", deleted))
	return deleted, nil
}

// NewGuest derives the slug, full name and invitation link of a guest.
func NewGuest(input AddGuestInput, id int, invitationBaseURL string, now time.Time) Guest {
	name := strings.TrimSpace(input.Name)
	fullName := FullName(input.Type, name)

	return Guest{
		ID:             id,
		Name:           name,
		Type:           strings.TrimSpace(input.Type),
		Category:       strings.TrimSpace(input.Category),
		FullName:       fullName,
		Slug:           slug.From(name),
		InvitationLink: InvitationLink(invitationBaseURL, fullName),
		CreatedAt:      now,
	}
}
