package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/hospital-admin/internal/model"
)

// AuthClient is /api/users/auth.  It does not store anything; the session
// package decides where tokens live.
type AuthClient struct{ c *Client }

// LoginResponse is the answer of login and register.
type LoginResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	TokenType    string     `json:"tokenType"`
	User         model.User `json:"user"`
}

func (a *AuthClient) Login(ctx context.Context, usernameOrEmail, password string) (LoginResponse, error) {
	var out LoginResponse
	err := a.c.do(ctx, http.MethodPost, "/api/users/auth/login", nil,
		map[string]string{"usernameOrEmail": usernameOrEmail, "password": password}, &out)
	return out, err
}

func (a *AuthClient) Register(ctx context.Context, in model.UserInput) (LoginResponse, error) {
	var out LoginResponse
	err := a.c.do(ctx, http.MethodPost, "/api/users/auth/register", nil, in, &out)
	return out, err
}

func (a *AuthClient) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := a.c.do(ctx, http.MethodGet, "/api/users/auth/me", nil, nil, &out)
	return out, err
}

// Refresh exchanges a refresh token for a new access token.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	q := url.Values{"refreshToken": {refreshToken}}
	if err := a.c.do(ctx, http.MethodPost, "/api/users/auth/refresh", q, nil, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Logout revokes refreshToken on the server.
func (a *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	return a.c.do(ctx, http.MethodPost, "/api/users/auth/logout", nil,
		map[string]string{"refreshToken": refreshToken}, nil)
}
