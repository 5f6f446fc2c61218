package memory

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

func TestPostStore_Interface(t *testing.T) {
	var _ store.PostStore = (*PostStore)(nil)
}

func newPost(title string, createdAt time.Time) *models.Post {
	return &models.Post{
		PostID:    uuid.Must(uuid.NewV7()),
		Title:     title,
		Content:   "content",
		Category:  "general",
		Image:     models.DefaultPostImage,
		AuthorID:  uuid.Must(uuid.NewV7()),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestPostStore_CRUD(t *testing.T) {
	ctx := context.Background()
	st := NewPostStore()
	post := newPost("hello", time.Now())

	require.NoError(t, st.Create(ctx, post))
	require.ErrorIs(t, st.Create(ctx, newPost("hello", time.Now())), store.ErrPostAlreadyExists)

	got, err := st.Get(ctx, post.PostID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Title)

	title := "hello again"
	updatedAt := time.Now().Add(time.Minute)
	updated, err := st.Update(ctx, post.PostID, models.PostUpdate{Title: &title}, updatedAt)
	require.NoError(t, err)
	require.Equal(t, "hello again", updated.Title)
	require.Equal(t, "content", updated.Content)
	require.True(t, updated.UpdatedAt.Equal(updatedAt))

	// the old title is free again
	require.NoError(t, st.Create(ctx, newPost("hello", time.Now())))

	require.NoError(t, st.Delete(ctx, post.PostID))
	_, err = st.Get(ctx, post.PostID)
	require.ErrorIs(t, err, store.ErrPostNotFound)
	require.ErrorIs(t, st.Delete(ctx, post.PostID), store.ErrPostNotFound)

	_, err = st.Update(ctx, post.PostID, models.PostUpdate{Title: &title}, updatedAt)
	require.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestPostStore_UpdateTitleConflict(t *testing.T) {
	ctx := context.Background()
	st := NewPostStore()

	first := newPost("first", time.Now())
	second := newPost("second", time.Now())
	require.NoError(t, st.Create(ctx, first))
	require.NoError(t, st.Create(ctx, second))

	title := "first"
	_, err := st.Update(ctx, second.PostID, models.PostUpdate{Title: &title}, time.Now())
	require.ErrorIs(t, err, store.ErrPostAlreadyExists)
}

func TestPostStore_List(t *testing.T) {
	ctx := context.Background()
	st := NewPostStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 15 {
		require.NoError(t, st.Create(ctx, newPost(fmt.Sprintf("post-%02d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	page1, err := st.List(ctx, store.ListPostsOptions{})
	require.NoError(t, err)
	require.Len(t, page1, store.DefaultPostLimit)
	require.Equal(t, "post-14", page1[0].Title)

	page2, err := st.List(ctx, store.ListPostsOptions{Page: 2})
	require.NoError(t, err)
	require.Len(t, page2, 5)
	require.Equal(t, "post-04", page2[0].Title)

	page3, err := st.List(ctx, store.ListPostsOptions{Page: 3})
	require.NoError(t, err)
	require.Empty(t, page3)

	small, err := st.List(ctx, store.ListPostsOptions{Limit: 3, Page: 2})
	require.NoError(t, err)
	require.Len(t, small, 3)
	require.Equal(t, "post-11", small[0].Title)
}

func TestPostStore_ListOutOfRange(t *testing.T) {
	ctx := context.Background()
	st := NewPostStore()
	for i := range 3 {
		require.NoError(t, st.Create(ctx, newPost(fmt.Sprintf("post-%d", i), time.Now())))
	}

	tests := []struct {
		name string
		opts store.ListPostsOptions
		want int
	}{
		{name: "huge limit", opts: store.ListPostsOptions{Limit: math.MaxInt, Page: 1}, want: 3},
		{name: "huge limit later page", opts: store.ListPostsOptions{Limit: math.MaxInt, Page: 3}, want: 0},
		{name: "huge page", opts: store.ListPostsOptions{Limit: 10, Page: math.MaxInt}, want: 0},
		{name: "both huge", opts: store.ListPostsOptions{Limit: math.MaxInt, Page: math.MaxInt}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := st.List(ctx, tt.opts)
			require.NoError(t, err)
			require.Len(t, posts, tt.want)
		})
	}
}
