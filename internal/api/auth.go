package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

// AuthResponse is the response from login, register and refresh.
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// Register creates a new account and returns its first credential pair.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	resp, err := c.Do(ctx, http.MethodPost, "/auth/register", body, "")
	if err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("unmarshal register response: %w", err)
	}
	return &out, nil
}

// Login authenticates with email/password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.Do(ctx, http.MethodPost, "/auth/login", body, "")
	if err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("unmarshal login response: %w", err)
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new credential pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	body := map[string]string{"refreshToken": refreshToken}
	resp, err := c.Do(ctx, http.MethodPost, "/auth/refresh", body, "")
	if err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("unmarshal refresh response: %w", err)
	}
	return &out, nil
}

// Me verifies an access token against the identity endpoint and returns the
// user it belongs to.
func (c *Client) Me(ctx context.Context, accessToken string) (*models.User, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/auth/me", nil, accessToken)
	if err != nil {
		return nil, err
	}
	var out struct {
		User *models.User `json:"user"`
	}
	if err := resp.JSON(&out); err != nil {
		return nil, fmt.Errorf("unmarshal identity response: %w", err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("identity response missing user")
	}
	return out.User, nil
}

// Logout invalidates an access token server-side.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	_, err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, accessToken)
	return err
}
