// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hilmanmaulana1237/undangan-evan/pkg/pagination"
)

/*
TestNewMeta covers page counting and navigation flags.
*/
func TestNewMeta(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, total int
		wantPages          int
		wantNext, wantPrev bool
	}{
		{"empty", 1, 10, 0, 0, false, false},
		{"single_page", 1, 10, 1, 1, false, false},
		{"exact_fit", 2, 5, 10, 2, false, true},
		{"first_of_many", 1, 3, 10, 4, true, false},
		{"past_the_end", 9, 3, 10, 4, false, true},
		{"huge_limit", 1, math.MaxInt, 3, 1, false, false},
		{"huge_page", 1<<62 + 1, 4, 3, 1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := pagination.NewMeta(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.wantPages, meta.TotalPages)
			assert.Equal(t, tt.wantNext, meta.HasNext)
			assert.Equal(t, tt.wantPrev, meta.HasPrev)
		})
	}
}

/*
TestWindow checks slice bounds including out-of-range pages.
*/
func TestWindow(t *testing.T) {
	start, end := pagination.Window(1, 3, 7)
	assert.Equal(t, [2]int{0, 3}, [2]int{start, end})

	start, end = pagination.Window(3, 3, 7)
	assert.Equal(t, [2]int{6, 7}, [2]int{start, end})

	start, end = pagination.Window(4, 3, 7)
	assert.Equal(t, start, end)
}

/*
TestWindow_LargeInputs makes sure pages far past the end stay empty and a
page size larger than the list takes all of it, without integer wrap-around.
*/
func TestWindow_LargeInputs(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, n     int
		wantStart, wantEnd int
	}{
		{"page_wraps_to_first", 1<<62 + 1, 4, 3, 3, 3},
		{"max_page", math.MaxInt, 2, 5, 5, 5},
		{"max_limit", 1, math.MaxInt, 3, 0, 3},
		{"max_limit_second_page", 2, math.MaxInt, 3, 3, 3},
		{"empty_list", 1, 10, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := pagination.Window(tt.page, tt.limit, tt.n)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, pagination.Params{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, math.MaxInt, pagination.Params{Page: 1<<62 + 1, Limit: 4}.Offset())
}

/*
TestFromRequest checks parsing, aliases and clamping.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Params
	}{
		{"", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
		{"page=3&per_page=5", pagination.Params{Page: 3, Limit: 5}},
		{"page=2&limit=7", pagination.Params{Page: 2, Limit: 7}},
		{"page=-1&per_page=0", pagination.Params{Page: 1, Limit: pagination.DefaultLimit}},
		{"page=abc&per_page=1000", pagination.Params{Page: 1, Limit: pagination.MaxLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/comments?"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(req))
		})
	}
}
