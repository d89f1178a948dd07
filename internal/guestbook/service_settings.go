// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"context"
	"log/slog"
	"time"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/ctxutil"
)

// LatestCommentsLimit is how many comments the overview lists.
const LatestCommentsLimit = 5

// # Settings

func (service *Service) readSettings(context context.Context) (*Settings, error) {
	settings := service.defaultSettings()
	err := service.read(context, constants.DocSettings, &settings, func() { settings = service.defaultSettings() })
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetSettings returns the stored settings, or the defaults if none exist.
func (service *Service) GetSettings(context context.Context) (*Settings, error) {
	service.settingsMu.RLock()
	defer service.settingsMu.RUnlock()

	return service.readSettings(context)
}

/*
UpdateSettings replaces the event and/or contact block with the ones given in
patch and stamps updated_at. Stats are owned by the store and never patched.

Returns:
  - *Settings: The merged settings
  - error: STORAGE_ERROR
*/
func (service *Service) UpdateSettings(context context.Context, patch SettingsPatch) (*Settings, error) {
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	settings, err := service.loadSettings(context)
	if err != nil {
		return nil, err
	}

	MergeSettings(settings, patch, service.options.Now().UTC())

	if err := service.commit(context, constants.DocSettings, nil, settings, nil); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context, service.logger).Info("settings_updated",
		slog.Bool("event", patch.Event != nil),
		slog.Bool("contact", patch.Contact != nil),
	)

	return settings, nil
}

// MergeSettings applies patch to settings in place.
func MergeSettings(settings *Settings, patch SettingsPatch, now time.Time) {
	if patch.Event != nil {
		settings.Event = *patch.Event
	}
	if patch.Contact != nil {
		settings.Contact = *patch.Contact
	}
	settings.UpdatedAt = &now
}

// IncrementViewCount adds one page view to the stats.
func (service *Service) IncrementViewCount(context context.Context) error {
	service.settingsMu.Lock()
	defer service.settingsMu.Unlock()

	settings, err := service.loadSettings(context)
	if err != nil {
		return err
	}

	settings.Stats.TotalViews++

	return service.commit(context, constants.DocSettings, nil, settings, nil)
}

// # Overview

/*
Overview summarizes the three documents for the dashboard.

"Today" is the current calendar day in the server's local time zone.
Attendance and like counts cover top-level comments and replies.
*/
func (service *Service) Overview(context context.Context) (*Overview, error) {
	service.commentsMu.RLock()
	defer service.commentsMu.RUnlock()
	service.guestsMu.RLock()
	defer service.guestsMu.RUnlock()
	service.settingsMu.RLock()
	defer service.settingsMu.RUnlock()

	comments, err := service.readComments(context)
	if err != nil {
		return nil, err
	}
	guests, err := service.readGuests(context)
	if err != nil {
		return nil, err
	}
	settings, err := service.readSettings(context)
	if err != nil {
		return nil, err
	}

	return BuildOverview(comments.Comments, guests.Guests, settings, service.options.Now()), nil
}

// BuildOverview computes the dashboard summary from the raw collections.
func BuildOverview(comments []Comment, guests []Guest, settings *Settings, now time.Time) *Overview {
	today := now.Local().Format(time.DateOnly)
	sameDay := func(t time.Time) bool { return t.Local().Format(time.DateOnly) == today }

	overview := &Overview{
		TotalGuests:       len(guests),
		TotalViews:        settings.Stats.TotalViews,
		LatestComments:    []Comment{},
		PopularCategories: map[string]int{},
	}

	count := func(c *Comment) {
		overview.TotalComments++
		overview.TotalLikes += c.LikeCount
		switch c.Presence {
		case Attending:
			overview.Attending++
		case NotAttending:
			overview.NotAttending++
		}
	}

	for i := range comments {
		count(&comments[i])
		for j := range comments[i].Replies {
			count(&comments[i].Replies[j])
		}
		if sameDay(comments[i].CreatedAt) {
			overview.CommentsToday++
		}
	}

	for _, guest := range guests {
		overview.PopularCategories[guest.Category]++
		if sameDay(guest.CreatedAt) {
			overview.GuestsToday++
		}
	}

	latest := (&commentsDoc{Comments: comments}).sortedComments()
	if len(latest) > LatestCommentsLimit {
		latest = latest[:LatestCommentsLimit]
	}
	overview.LatestComments = append(overview.LatestComments, latest...)

	return overview
}
