package api

import (
	"context"

	"erpconsole/internal/apiclient"
)

// TokenPair is the body of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}

// Auth wraps the /auth endpoints. It does not touch the token store; the
// session owns persistence.
type Auth struct {
	client *apiclient.Client
}

func (a Auth) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var out TokenPair
	if err := a.client.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a Auth) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var out User
	if err := a.client.Post(ctx, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a Auth) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	if err := a.client.Post(ctx, apiclient.RefreshPath, map[string]string{"refresh_token": refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a Auth) Me(ctx context.Context) (*User, error) {
	var out User
	if _, err := a.client.Get(ctx, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the refresh token on the backend.
func (a Auth) Logout(ctx context.Context, refreshToken string) error {
	return a.client.Post(ctx, "/auth/logout", map[string]string{"refresh_token": refreshToken}, nil)
}
