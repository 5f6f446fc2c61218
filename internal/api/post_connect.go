package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// PostServiceName is the fully-qualified name of the PostService.
const PostServiceName = "post.v1.PostService"

// Procedure names for the PostService.
const (
	PostServiceCreatePostProcedure = "/post.v1.PostService/CreatePost"
	PostServiceGetPostProcedure    = "/post.v1.PostService/GetPost"
	PostServiceGetPostsProcedure   = "/post.v1.PostService/GetPosts"
	PostServiceUpdatePostProcedure = "/post.v1.PostService/UpdatePost"
	PostServiceDeletePostProcedure = "/post.v1.PostService/DeletePost"
)

// PostServiceClient is a client for the post.v1.PostService service.
type PostServiceClient interface {
	CreatePost(context.Context, *connect.Request[CreatePostRequest]) (*connect.Response[CreatePostResponse], error)
	GetPost(context.Context, *connect.Request[GetPostRequest]) (*connect.Response[GetPostResponse], error)
	GetPosts(context.Context, *connect.Request[GetPostsRequest]) (*connect.Response[GetPostsResponse], error)
	UpdatePost(context.Context, *connect.Request[UpdatePostRequest]) (*connect.Response[UpdatePostResponse], error)
	DeletePost(context.Context, *connect.Request[DeletePostRequest]) (*connect.Response[DeletePostResponse], error)
}

// NewPostServiceClient constructs a client for the post.v1.PostService service.
//
// The URL supplied here should be the base URL for the server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewPostServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PostServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{codecOption}, opts...)
	return &postServiceClient{
		createPost: connect.NewClient[CreatePostRequest, CreatePostResponse](httpClient, baseURL+PostServiceCreatePostProcedure, opts...),
		getPost:    connect.NewClient[GetPostRequest, GetPostResponse](httpClient, baseURL+PostServiceGetPostProcedure, opts...),
		getPosts:   connect.NewClient[GetPostsRequest, GetPostsResponse](httpClient, baseURL+PostServiceGetPostsProcedure, opts...),
		updatePost: connect.NewClient[UpdatePostRequest, UpdatePostResponse](httpClient, baseURL+PostServiceUpdatePostProcedure, opts...),
		deletePost: connect.NewClient[DeletePostRequest, DeletePostResponse](httpClient, baseURL+PostServiceDeletePostProcedure, opts...),
	}
}

type postServiceClient struct {
	createPost *connect.Client[CreatePostRequest, CreatePostResponse]
	getPost    *connect.Client[GetPostRequest, GetPostResponse]
	getPosts   *connect.Client[GetPostsRequest, GetPostsResponse]
	updatePost *connect.Client[UpdatePostRequest, UpdatePostResponse]
	deletePost *connect.Client[DeletePostRequest, DeletePostResponse]
}

// CreatePost calls post.v1.PostService.CreatePost.
func (c *postServiceClient) CreatePost(ctx context.Context, req *connect.Request[CreatePostRequest]) (*connect.Response[CreatePostResponse], error) {
	return c.createPost.CallUnary(ctx, req)
}

// GetPost calls post.v1.PostService.GetPost.
func (c *postServiceClient) GetPost(ctx context.Context, req *connect.Request[GetPostRequest]) (*connect.Response[GetPostResponse], error) {
	return c.getPost.CallUnary(ctx, req)
}

// GetPosts calls post.v1.PostService.GetPosts.
func (c *postServiceClient) GetPosts(ctx context.Context, req *connect.Request[GetPostsRequest]) (*connect.Response[GetPostsResponse], error) {
	return c.getPosts.CallUnary(ctx, req)
}

// UpdatePost calls post.v1.PostService.UpdatePost.
func (c *postServiceClient) UpdatePost(ctx context.Context, req *connect.Request[UpdatePostRequest]) (*connect.Response[UpdatePostResponse], error) {
	return c.updatePost.CallUnary(ctx, req)
}

// DeletePost calls post.v1.PostService.DeletePost.
func (c *postServiceClient) DeletePost(ctx context.Context, req *connect.Request[DeletePostRequest]) (*connect.Response[DeletePostResponse], error) {
	return c.deletePost.CallUnary(ctx, req)
}

// PostServiceHandler is an implementation of the post.v1.PostService service.
type PostServiceHandler interface {
	CreatePost(context.Context, *connect.Request[CreatePostRequest]) (*connect.Response[CreatePostResponse], error)
	GetPost(context.Context, *connect.Request[GetPostRequest]) (*connect.Response[GetPostResponse], error)
	GetPosts(context.Context, *connect.Request[GetPostsRequest]) (*connect.Response[GetPostsResponse], error)
	UpdatePost(context.Context, *connect.Request[UpdatePostRequest]) (*connect.Response[UpdatePostResponse], error)
	DeletePost(context.Context, *connect.Request[DeletePostRequest]) (*connect.Response[DeletePostResponse], error)
}

// NewPostServiceHandler builds an HTTP handler from the service implementation. It
// returns the path on which to mount the handler and the handler itself.
func NewPostServiceHandler(svc PostServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{codecOption}, opts...)
	createPostHandler := connect.NewUnaryHandler(PostServiceCreatePostProcedure, svc.CreatePost, opts...)
	getPostHandler := connect.NewUnaryHandler(PostServiceGetPostProcedure, svc.GetPost, opts...)
	getPostsHandler := connect.NewUnaryHandler(PostServiceGetPostsProcedure, svc.GetPosts, opts...)
	updatePostHandler := connect.NewUnaryHandler(PostServiceUpdatePostProcedure, svc.UpdatePost, opts...)
	deletePostHandler := connect.NewUnaryHandler(PostServiceDeletePostProcedure, svc.DeletePost, opts...)
	return "/post.v1.PostService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PostServiceCreatePostProcedure:
			createPostHandler.ServeHTTP(w, r)
		case PostServiceGetPostProcedure:
			getPostHandler.ServeHTTP(w, r)
		case PostServiceGetPostsProcedure:
			getPostsHandler.ServeHTTP(w, r)
		case PostServiceUpdatePostProcedure:
			updatePostHandler.ServeHTTP(w, r)
		case PostServiceDeletePostProcedure:
			deletePostHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
