// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guestbook

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// # Persisted Documents

// commentsDoc is the layout of comments.json. Total counts every node of the
// tree, replies included.
type commentsDoc struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
	LastID   int       `json:"lastId"`
}

// guestsDoc is the layout of guests.json.
type guestsDoc struct {
	Guests []Guest `json:"guests"`
	Total  int     `json:"total"`
	LastID int     `json:"lastId"`
}

func newCommentsDoc() *commentsDoc {
	return &commentsDoc{Comments: []Comment{}}
}

func newGuestsDoc() *guestsDoc {
	return &guestsDoc{Guests: []Guest{}}
}

// normalize repairs fields that older documents may lack.
func (doc *commentsDoc) normalize() {
	if doc.Comments == nil {
		doc.Comments = []Comment{}
	}
	for i := range doc.Comments {
		if doc.Comments[i].Replies == nil {
			doc.Comments[i].Replies = []Comment{}
		}
	}
}

func (doc *guestsDoc) normalize() {
	if doc.Guests == nil {
		doc.Guests = []Guest{}
	}
}

// size counts top-level comments and their replies.
func (doc *commentsDoc) size() int {
	n := 0
	for i := range doc.Comments {
		n += doc.Comments[i].Size()
	}
	return n
}

// locate finds a comment by reference. reply is -1 for a top-level match.
func (doc *commentsDoc) locate(ref string) (top, reply int, ok bool) {
	for i := range doc.Comments {
		if doc.Comments[i].Matches(ref) {
			return i, -1, true
		}
		for j := range doc.Comments[i].Replies {
			if doc.Comments[i].Replies[j].Matches(ref) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// at returns the comment addressed by a locate result.
func (doc *commentsDoc) at(top, reply int) *Comment {
	if reply < 0 {
		return &doc.Comments[top]
	}
	return &doc.Comments[top].Replies[reply]
}

// newestFirst orders comments by creation time, newest first, ties by id.
func newestFirst(a, b Comment) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func newestGuestFirst(a, b Guest) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// sortedComments returns the top-level comments newest first.
func (doc *commentsDoc) sortedComments() []Comment {
	out := slices.Clone(doc.Comments)
	slices.SortStableFunc(out, newestFirst)
	return out
}

func (doc *guestsDoc) sortedGuests() []Guest {
	out := slices.Clone(doc.Guests)
	slices.SortStableFunc(out, newestGuestFirst)
	return out
}

// # Default Settings

// DefaultSettings returns the settings created on first access.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		Event: Event{
			Title:      "Undangan Pernikahan",
			ChildName:  "Mempelai",
			FatherName: "Bapak",
			MotherName: "Ibu",
			Date:       now.Format(time.DateOnly),
			Time:       "08:00:00",
			Location:   "Alamat Acara",
			MapURL:     "#",
		},
		Contact: Contact{
			Phone:       "08123456789",
			BankName:    "Bank",
			BankAccount: "1234567890",
			BankHolder:  "Nama Pemilik",
		},
	}
}

// LoadSettingsSeed reads a YAML file with event and contact blocks and lays
// it over [DefaultSettings]. Keys missing from the file keep their default.
//
// Example:
//
//	event:
//	  title: Khitanan Ahmad
//	  date: "2025-09-14"
//	contact:
//	  phone: "0812345678"
func LoadSettingsSeed(path string, now time.Time) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("guestbook: read settings seed: %w", err)
	}

	settings := DefaultSettings(now)
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("guestbook: parse settings seed %s: %w", path, err)
	}
	settings.Stats = Stats{}
	settings.UpdatedAt = nil

	return &settings, nil
}
