package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

func (c *Client) Register(ctx context.Context, name string, email string, password string) (wire.User, error) {
	data, err := Call[wire.UserData](ctx, c, http.MethodPost, "/auth/register", wire.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return wire.User{}, err
	}
	return data.User, nil
}

// Login fails with *Error wrapping apperrors.ErrInvalidCredentials on 401
func (c *Client) Login(ctx context.Context, email string, password string) (wire.Session, error) {
	s, err := Call[wire.Session](WithAuthFlow(ctx), c, http.MethodPost, "/auth/login", wire.LoginRequest{
		Email:    email,
		Password: password,
	})

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		apiErr.Err = apperrors.ErrInvalidCredentials
	}
	return s, err
}

// Refresh exchanges the current token (bearer or cookie) for a new one
func (c *Client) Refresh(ctx context.Context) (wire.Session, error) {
	return Call[wire.Session](WithAuthFlow(ctx), c, http.MethodPost, "/auth/refresh", nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Exec(WithAuthFlow(ctx), http.MethodPost, "/auth/logout", nil)
}

// Verify resumes session from the cookie jar
func (c *Client) Verify(ctx context.Context) (wire.Session, error) {
	return Call[wire.Session](WithAuthFlow(ctx), c, http.MethodGet, "/auth/verify", nil)
}
