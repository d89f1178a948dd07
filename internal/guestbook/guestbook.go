// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guestbook is the single source of truth for comments, guests and
event settings of an invitation page.

State lives in three whole JSON documents (comments, guests, settings). The
[Store] interface hides how those documents are reached: directly through a
[docstore.Backend] ([Service]), over HTTP (package remote) or through the
offline proxy (package offline).

# Core Responsibility

  - Comments: guestbook wishes with one level of replies, likes and presence.
  - Guests: the invitation list with derived slugs and personal links.
  - Settings: event details, contact block and the aggregate counters.

[docstore.Backend]: github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore.Backend
*/
package guestbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// # Presence

// Presence records whether the author will attend the event.
type Presence int

const (
	PresenceUnknown Presence = iota
	Attending
	NotAttending
)

// Valid reports whether p is one of the two accepted values.
func (p Presence) Valid() bool {
	return p == Attending || p == NotAttending
}

func (p Presence) String() string {
	switch p {
	case Attending:
		return "ATTENDING"
	case NotAttending:
		return "NOT_ATTENDING"
	default:
		return "UNKNOWN"
	}
}

// ParsePresence accepts the names ATTENDING and NOT_ATTENDING (any case), the
// legacy form codes 1 and 2, and true or false.
func ParsePresence(raw string) (Presence, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ATTENDING", "1", "TRUE":
		return Attending, nil
	case "NOT_ATTENDING", "2", "0", "FALSE":
		return NotAttending, nil
	}
	return PresenceUnknown, fmt.Errorf("guestbook: invalid presence %q", raw)
}

// MarshalJSON writes the boolean form stored in comments.json.
func (p Presence) MarshalJSON() ([]byte, error) {
	switch p {
	case Attending:
		return []byte("true"), nil
	case NotAttending:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a boolean, a number or a string; null means unknown.
func (p *Presence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = PresenceUnknown
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	parsed, err := ParsePresence(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// # Core Entities

// Comment is a guestbook entry. Top-level comments own their replies; a reply
// never has replies of its own.
type Comment struct {
	UUID       string   `json:"uuid"`
	ID         int      `json:"id"`
	AuthorName string   `json:"name"`
	AuthorSlug string   `json:"own"`
	Presence   Presence `json:"presence"`
	Body       string   `json:"comment"`
	GifURL     *string  `json:"gif_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LikeCount int       `json:"like_count"`

	IsAdmin  bool      `json:"is_admin"`
	IsParent bool      `json:"is_parent"`
	ParentID *int      `json:"parent_id,omitempty"`
	Replies  []Comment `json:"comments"`

	// Request metadata captured by the HTTP layer.
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// Provisional marks a placeholder produced by the offline proxy.
	Provisional bool `json:"offline,omitempty"`
}

// Size is the number of nodes in the comment's subtree, itself included.
func (c *Comment) Size() int {
	return 1 + len(c.Replies)
}

// Matches reports whether ref names this comment by uuid or numeric id.
func (c *Comment) Matches(ref string) bool {
	if c.UUID == ref {
		return true
	}
	id, err := strconv.Atoi(ref)
	return err == nil && c.ID == id
}

// Guest is one entry of the invitation list.
type Guest struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Category       string    `json:"category"`
	FullName       string    `json:"full_name"`
	Slug           string    `json:"slug"`
	InvitationLink string    `json:"invitation_link"`
	Views          int       `json:"views"`
	CommentCount   int       `json:"comment_count"`
	CreatedAt      time.Time `json:"created_at"`

	Provisional bool `json:"offline,omitempty"`
}

// # Settings

// Event describes the celebration shown on the invitation page.
type Event struct {
	Title      string `json:"title"      yaml:"title"`
	ChildName  string `json:"childName"  yaml:"childName"`
	FatherName string `json:"fatherName" yaml:"fatherName"`
	MotherName string `json:"motherName" yaml:"motherName"`
	Date       string `json:"date"       yaml:"date"`
	Time       string `json:"time"       yaml:"time"`
	Location   string `json:"location"   yaml:"location"`
	MapURL     string `json:"mapUrl"     yaml:"mapUrl"`
}

// Contact holds the host's phone and gift transfer details.
type Contact struct {
	Phone       string `json:"phone"       yaml:"phone"`
	BankName    string `json:"bankName"    yaml:"bankName"`
	BankAccount string `json:"bankAccount" yaml:"bankAccount"`
	BankHolder  string `json:"bankHolder"  yaml:"bankHolder"`
}

// Stats are maintained by the store as a side effect of mutations.
type Stats struct {
	TotalViews    int `json:"totalViews"`
	TotalComments int `json:"totalComments"`
	TotalGuests   int `json:"totalGuests"`
}

// Settings is the content of settings.json.
type Settings struct {
	Event     Event      `json:"event"                yaml:"event"`
	Contact   Contact    `json:"contact"              yaml:"contact"`
	Stats     Stats      `json:"stats"                yaml:"-"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// # Read Models

// Overview is the dashboard summary served by GET /api/stats.
type Overview struct {
	TotalComments     int            `json:"total_comments"`
	TotalGuests       int            `json:"total_guests"`
	TotalViews        int            `json:"total_views"`
	CommentsToday     int            `json:"comments_today"`
	GuestsToday       int            `json:"guests_today"`
	Attending         int            `json:"attending"`
	NotAttending      int            `json:"not_attending"`
	TotalLikes        int            `json:"total_likes"`
	LatestComments    []Comment      `json:"latest_comments"`
	PopularCategories map[string]int `json:"popular_categories"`
}

// Page is one window of a newest-first list.
type Page[T any] struct {
	Items      []T  `json:"data"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}
