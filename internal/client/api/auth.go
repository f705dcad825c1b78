package api

import (
	"context"
	"fmt"

	"github.com/conslogger/conslogger/pkg/api"
)

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/register", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/login", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/refresh", api.RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает refresh-токены пользователя на сервере
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doAuthRequest(ctx, "POST", "/api/v1/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context) (*api.Profile, error) {
	var resp api.Profile
	if err := c.doAuthRequest(ctx, "GET", "/api/v1/users/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// UpdateMe изменяет профиль текущего пользователя
func (c *Client) UpdateMe(ctx context.Context, req api.UpdateProfileRequest) (*api.Profile, error) {
	var resp api.Profile
	if err := c.doAuthRequest(ctx, "PUT", "/api/v1/users/me", req, &resp); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &resp, nil
}

// Lookup находит публичный профиль пользователя по handle
func (c *Client) Lookup(ctx context.Context, handle string) (*api.Profile, error) {
	var resp api.Profile
	path := fmt.Sprintf("/api/v1/users/lookup/%s", handle)
	if err := c.doAuthRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	return &resp, nil
}
