package server_test

import (
	"context"
	"math"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/server"
	"github.com/wolfeidau/sessionauth/internal/server/servertest"
)

func createPost(t *testing.T, b *browser, title string) *api.Post {
	t.Helper()
	resp, err := b.posts.CreatePost(context.Background(), connect.NewRequest(&api.CreatePostRequest{
		Title:    title,
		Content:  "content of " + title,
		Category: "news",
	}))
	require.NoError(t, err)
	return resp.Msg.Post
}

func TestPostWritesRequireLogin(t *testing.T) {
	env := servertest.New(t)
	b := newBrowser(t, env)
	ctx := context.Background()

	_, err := b.posts.CreatePost(ctx, connect.NewRequest(&api.CreatePostRequest{
		Title:    "hello",
		Content:  "world",
		Category: "news",
	}))
	requireKind(t, err, auth.KindUnauthenticated, auth.MsgUnauthenticated)

	title := "changed"
	_, err = b.posts.UpdatePost(ctx, connect.NewRequest(&api.UpdatePostRequest{
		PostID: uuid.NewString(),
		Title:  &title,
	}))
	requireKind(t, err, auth.KindUnauthenticated, auth.MsgUnauthenticated)

	_, err = b.posts.DeletePost(ctx, connect.NewRequest(&api.DeletePostRequest{PostID: uuid.NewString()}))
	requireKind(t, err, auth.KindUnauthenticated, auth.MsgUnauthenticated)
}

func TestPostLifecycle(t *testing.T) {
	env := servertest.New(t)
	b := newBrowser(t, env)
	user := register(t, b, aliceEmail)
	login(t, b, aliceEmail)
	ctx := context.Background()

	post := createPost(t, b, "first")
	require.Equal(t, models.DefaultPostImage, post.Image)
	require.NotNil(t, post.Author)
	require.Equal(t, user.ID, post.Author.ID)
	require.Equal(t, aliceEmail, post.Author.Email)

	_, err := b.posts.CreatePost(ctx, connect.NewRequest(&api.CreatePostRequest{
		Title:    "first",
		Content:  "again",
		Category: "news",
	}))
	requireKind(t, err, auth.KindConflict, server.MsgPostTitleExists)

	// reads are public
	anon := newBrowser(t, env)
	got, err := anon.posts.GetPost(ctx, connect.NewRequest(&api.GetPostRequest{PostID: post.ID}))
	require.NoError(t, err)
	require.Equal(t, "first", got.Msg.Post.Title)
	require.Equal(t, "Alice", got.Msg.Post.Author.Name)

	env.Clock.Advance(time.Minute)
	content := "updated content"
	updated, err := b.posts.UpdatePost(ctx, connect.NewRequest(&api.UpdatePostRequest{
		PostID:  post.ID,
		Content: &content,
	}))
	require.NoError(t, err)
	require.Equal(t, "first", updated.Msg.Post.Title)
	require.Equal(t, content, updated.Msg.Post.Content)
	require.True(t, updated.Msg.Post.UpdatedAt.After(updated.Msg.Post.CreatedAt))

	_, err = b.posts.DeletePost(ctx, connect.NewRequest(&api.DeletePostRequest{PostID: post.ID}))
	require.NoError(t, err)

	_, err = anon.posts.GetPost(ctx, connect.NewRequest(&api.GetPostRequest{PostID: post.ID}))
	requireKind(t, err, auth.KindNotFound, server.MsgPostNotFound)

	_, err = b.posts.DeletePost(ctx, connect.NewRequest(&api.DeletePostRequest{PostID: post.ID}))
	requireKind(t, err, auth.KindNotFound, server.MsgPostNotFound)
}

func TestGetPostNotFound(t *testing.T) {
	env := servertest.New(t)
	b := newBrowser(t, env)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := b.posts.GetPost(context.Background(), connect.NewRequest(&api.GetPostRequest{PostID: id}))
		requireKind(t, err, auth.KindNotFound, server.MsgPostNotFound)
	}
}

func TestGetPostsPaging(t *testing.T) {
	env := servertest.New(t)
	b := newBrowser(t, env)
	register(t, b, aliceEmail)
	login(t, b, aliceEmail)

	for _, title := range []string{"one", "two", "three"} {
		createPost(t, b, title)
		env.Clock.Advance(time.Second)
	}

	resp, err := b.posts.GetPosts(context.Background(), connect.NewRequest(&api.GetPostsRequest{}))
	require.NoError(t, err)
	require.Equal(t, 3, resp.Msg.Results)
	require.Equal(t, "three", resp.Msg.Posts[0].Title)
	for _, p := range resp.Msg.Posts {
		require.Equal(t, "Alice", p.Author.Name)
	}

	resp, err = b.posts.GetPosts(context.Background(), connect.NewRequest(&api.GetPostsRequest{Limit: 2, Page: 2}))
	require.NoError(t, err)
	require.Equal(t, 1, resp.Msg.Results)
	require.Equal(t, "one", resp.Msg.Posts[0].Title)
}

func TestGetPostsOutOfRangePaging(t *testing.T) {
	env := servertest.New(t)
	author := newBrowser(t, env)
	register(t, author, aliceEmail)
	login(t, author, aliceEmail)
	for _, title := range []string{"one", "two"} {
		createPost(t, author, title)
	}

	anonymous := newBrowser(t, env)
	tests := []struct {
		name string
		req  *api.GetPostsRequest
		want int
	}{
		{name: "huge limit", req: &api.GetPostsRequest{Limit: math.MaxInt, Page: 1}, want: 2},
		{name: "huge limit later page", req: &api.GetPostsRequest{Limit: math.MaxInt, Page: 3}, want: 0},
		{name: "huge page", req: &api.GetPostsRequest{Limit: 10, Page: math.MaxInt}, want: 0},
		{name: "negative", req: &api.GetPostsRequest{Limit: -1, Page: -1}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := anonymous.posts.GetPosts(context.Background(), connect.NewRequest(tt.req))
			require.NoError(t, err)
			require.Equal(t, tt.want, resp.Msg.Results)
		})
	}
}

func TestUpdatePostTitleConflict(t *testing.T) {
	env := servertest.New(t)
	b := newBrowser(t, env)
	register(t, b, aliceEmail)
	login(t, b, aliceEmail)

	createPost(t, b, "taken")
	post := createPost(t, b, "mine")

	title := "taken"
	_, err := b.posts.UpdatePost(context.Background(), connect.NewRequest(&api.UpdatePostRequest{
		PostID: post.ID,
		Title:  &title,
	}))
	requireKind(t, err, auth.KindConflict, server.MsgPostTitleExists)
}
