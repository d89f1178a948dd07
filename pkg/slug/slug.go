// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII URL slugs from arbitrary Unicode strings.
//
// # Usage
//
// Guest slugs are the secondary uniqueness key of the guest list
// (e.g., "Budi Santoso" → "budi-santoso"), so two spellings that only differ
// in accents or punctuation collapse to the same slug on purpose.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// unsafe matches runs of anything that may not appear in a slug.
	unsafe = regexp.MustCompile(`[^a-z0-9]+`)
	// apostrophes are dropped rather than turned into separators.
	apostrophes = strings.NewReplacer("'", "", "’", "")
)

/*
From converts a display name into a lower-case ASCII slug.

Accents are stripped after NFD decomposition, apostrophes vanish
("D'Souza" -> "dsouza"), and every other run of non-alphanumerics becomes a
single hyphen. Names with no letter or digit left produce "".
*/
func From(s string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripAccents, s)
	if err != nil {
		folded = s
	}

	folded = apostrophes.Replace(strings.ToLower(folded))
	return strings.Trim(unsafe.ReplaceAllString(folded, "-"), "-")
}

// Handle is the lighter normalization used for comment authors: lower-cased,
// whitespace runs replaced by a single hyphen, everything else kept as typed.
// Unlike [From] it is not meant to be unique.
func Handle(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
