package api

import (
	"context"
	"net/http"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// Register creates an account and returns the credential plus profile.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token and profile.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &out, reqOpt{}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current credential server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil, reqOpt{auth: true})
}

// CurrentUser fetches the identity behind the current credential.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile updates the authenticated user's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPut, "/api/users/me", nil, fields, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preferences fetches the user's personalization settings.
func (c *Client) Preferences(ctx context.Context) (*domain.UserPreference, error) {
	var out domain.UserPreference
	if err := c.do(ctx, http.MethodGet, "/api/users/me/preferences", nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePreferences updates the user's personalization settings.
func (c *Client) UpdatePreferences(ctx context.Context, prefs domain.UserPreference) (*domain.UserPreference, error) {
	var out domain.UserPreference
	if err := c.do(ctx, http.MethodPut, "/api/users/me/preferences", nil, prefs, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}
