package upstream

import (
	"context"
	"net/http"
)

// AuthClient talks to the authentication endpoints of the backend.
type AuthClient struct {
	client  *Client
	baseURL string
}

// NewAuthClient creates an auth client rooted at baseURL (e.g. ".../api/auth").
func NewAuthClient(client *Client, baseURL string) *AuthClient {
	return &AuthClient{client: client, baseURL: baseURL}
}

// Me validates a bearer credential and returns the account it belongs to.
func (a *AuthClient) Me(ctx context.Context, token string) (*UserProfile, error) {
	var res struct {
		User *UserProfile `json:"user"`
	}
	if err := a.client.do(ctx, http.MethodGet, a.baseURL+"/me", token, nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Login exchanges credentials for a user profile and bearer token.
func (a *AuthClient) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	var res AuthResult
	if err := a.client.do(ctx, http.MethodPost, a.baseURL+"/login", "", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account and returns the same payload as Login.
func (a *AuthClient) Register(ctx context.Context, form RegisterForm) (*AuthResult, error) {
	var res AuthResult
	if err := a.client.do(ctx, http.MethodPost, a.baseURL+"/register", "", form, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
