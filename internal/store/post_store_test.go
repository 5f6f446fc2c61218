package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListPostsOptions_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		opts       ListPostsOptions
		wantLimit  int
		wantPage   int
		wantOffset int
	}{
		{name: "defaults", opts: ListPostsOptions{}, wantLimit: DefaultPostLimit, wantPage: 1, wantOffset: 0},
		{name: "negative values", opts: ListPostsOptions{Limit: -5, Page: -1}, wantLimit: DefaultPostLimit, wantPage: 1, wantOffset: 0},
		{name: "second page", opts: ListPostsOptions{Limit: 2, Page: 2}, wantLimit: 2, wantPage: 2, wantOffset: 2},
		{name: "limit capped", opts: ListPostsOptions{Limit: 1000, Page: 1}, wantLimit: MaxPostLimit, wantPage: 1, wantOffset: 0},
		{
			name:       "huge limit and page",
			opts:       ListPostsOptions{Limit: math.MaxInt, Page: 3},
			wantLimit:  MaxPostLimit,
			wantPage:   3,
			wantOffset: 2 * MaxPostLimit,
		},
		{
			name:       "page past max offset",
			opts:       ListPostsOptions{Limit: 10, Page: math.MaxInt},
			wantLimit:  10,
			wantPage:   maxPostOffset/10 + 1,
			wantOffset: maxPostOffset / 10 * 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			offset := opts.Normalize()
			require.Equal(t, tt.wantLimit, opts.Limit)
			require.Equal(t, tt.wantPage, opts.Page)
			require.Equal(t, tt.wantOffset, offset)
			require.GreaterOrEqual(t, offset, 0)
		})
	}
}
