package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// AuthServiceName is the fully-qualified name of the AuthService.
const AuthServiceName = "auth.v1.AuthService"

// Procedure names for the AuthService.
const (
	AuthServiceRegisterUserProcedure = "/auth.v1.AuthService/RegisterUser"
	AuthServiceLoginUserProcedure    = "/auth.v1.AuthService/LoginUser"
	AuthServiceLogoutUserProcedure   = "/auth.v1.AuthService/LogoutUser"
	AuthServiceRefreshTokenProcedure = "/auth.v1.AuthService/RefreshToken"
	AuthServiceGetMeProcedure        = "/auth.v1.AuthService/GetMe"
)

// AuthServiceClient is a client for the auth.v1.AuthService service.
type AuthServiceClient interface {
	RegisterUser(context.Context, *connect.Request[RegisterUserRequest]) (*connect.Response[RegisterUserResponse], error)
	LoginUser(context.Context, *connect.Request[LoginUserRequest]) (*connect.Response[LoginUserResponse], error)
	LogoutUser(context.Context, *connect.Request[LogoutUserRequest]) (*connect.Response[LogoutUserResponse], error)
	RefreshToken(context.Context, *connect.Request[RefreshTokenRequest]) (*connect.Response[RefreshTokenResponse], error)
	GetMe(context.Context, *connect.Request[GetMeRequest]) (*connect.Response[GetMeResponse], error)
}

// NewAuthServiceClient constructs a client for the auth.v1.AuthService service.
//
// The URL supplied here should be the base URL for the server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{codecOption}, opts...)
	return &authServiceClient{
		registerUser: connect.NewClient[RegisterUserRequest, RegisterUserResponse](httpClient, baseURL+AuthServiceRegisterUserProcedure, opts...),
		loginUser:    connect.NewClient[LoginUserRequest, LoginUserResponse](httpClient, baseURL+AuthServiceLoginUserProcedure, opts...),
		logoutUser:   connect.NewClient[LogoutUserRequest, LogoutUserResponse](httpClient, baseURL+AuthServiceLogoutUserProcedure, opts...),
		refreshToken: connect.NewClient[RefreshTokenRequest, RefreshTokenResponse](httpClient, baseURL+AuthServiceRefreshTokenProcedure, opts...),
		getMe:        connect.NewClient[GetMeRequest, GetMeResponse](httpClient, baseURL+AuthServiceGetMeProcedure, opts...),
	}
}

type authServiceClient struct {
	registerUser *connect.Client[RegisterUserRequest, RegisterUserResponse]
	loginUser    *connect.Client[LoginUserRequest, LoginUserResponse]
	logoutUser   *connect.Client[LogoutUserRequest, LogoutUserResponse]
	refreshToken *connect.Client[RefreshTokenRequest, RefreshTokenResponse]
	getMe        *connect.Client[GetMeRequest, GetMeResponse]
}

// RegisterUser calls auth.v1.AuthService.RegisterUser.
func (c *authServiceClient) RegisterUser(ctx context.Context, req *connect.Request[RegisterUserRequest]) (*connect.Response[RegisterUserResponse], error) {
	return c.registerUser.CallUnary(ctx, req)
}

// LoginUser calls auth.v1.AuthService.LoginUser.
func (c *authServiceClient) LoginUser(ctx context.Context, req *connect.Request[LoginUserRequest]) (*connect.Response[LoginUserResponse], error) {
	return c.loginUser.CallUnary(ctx, req)
}

// LogoutUser calls auth.v1.AuthService.LogoutUser.
func (c *authServiceClient) LogoutUser(ctx context.Context, req *connect.Request[LogoutUserRequest]) (*connect.Response[LogoutUserResponse], error) {
	return c.logoutUser.CallUnary(ctx, req)
}

// RefreshToken calls auth.v1.AuthService.RefreshToken.
func (c *authServiceClient) RefreshToken(ctx context.Context, req *connect.Request[RefreshTokenRequest]) (*connect.Response[RefreshTokenResponse], error) {
	return c.refreshToken.CallUnary(ctx, req)
}

// GetMe calls auth.v1.AuthService.GetMe.
func (c *authServiceClient) GetMe(ctx context.Context, req *connect.Request[GetMeRequest]) (*connect.Response[GetMeResponse], error) {
	return c.getMe.CallUnary(ctx, req)
}

// AuthServiceHandler is an implementation of the auth.v1.AuthService service.
type AuthServiceHandler interface {
	RegisterUser(context.Context, *connect.Request[RegisterUserRequest]) (*connect.Response[RegisterUserResponse], error)
	LoginUser(context.Context, *connect.Request[LoginUserRequest]) (*connect.Response[LoginUserResponse], error)
	LogoutUser(context.Context, *connect.Request[LogoutUserRequest]) (*connect.Response[LogoutUserResponse], error)
	RefreshToken(context.Context, *connect.Request[RefreshTokenRequest]) (*connect.Response[RefreshTokenResponse], error)
	GetMe(context.Context, *connect.Request[GetMeRequest]) (*connect.Response[GetMeResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation. It
// returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{codecOption}, opts...)
	registerUserHandler := connect.NewUnaryHandler(AuthServiceRegisterUserProcedure, svc.RegisterUser, opts...)
	loginUserHandler := connect.NewUnaryHandler(AuthServiceLoginUserProcedure, svc.LoginUser, opts...)
	logoutUserHandler := connect.NewUnaryHandler(AuthServiceLogoutUserProcedure, svc.LogoutUser, opts...)
	refreshTokenHandler := connect.NewUnaryHandler(AuthServiceRefreshTokenProcedure, svc.RefreshToken, opts...)
	getMeHandler := connect.NewUnaryHandler(AuthServiceGetMeProcedure, svc.GetMe, opts...)
	return "/auth.v1.AuthService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterUserProcedure:
			registerUserHandler.ServeHTTP(w, r)
		case AuthServiceLoginUserProcedure:
			loginUserHandler.ServeHTTP(w, r)
		case AuthServiceLogoutUserProcedure:
			logoutUserHandler.ServeHTTP(w, r)
		case AuthServiceRefreshTokenProcedure:
			refreshTokenHandler.ServeHTTP(w, r)
		case AuthServiceGetMeProcedure:
			getMeHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
