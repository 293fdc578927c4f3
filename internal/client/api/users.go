package api

import (
	"context"
	"net/http"

	"github.com/nkiryanov/taskmanager/internal/wire"
)

func (c *Client) Me(ctx context.Context) (wire.User, error) {
	data, err := Call[wire.UserData](ctx, c, http.MethodGet, "/users/me", nil)
	return data.User, err
}

func (c *Client) UpdateMe(ctx context.Context, req wire.ProfileRequest) (wire.User, error) {
	data, err := Call[wire.UserData](ctx, c, http.MethodPatch, "/users/me", req)
	return data.User, err
}

// ListUsers is admin only
func (c *Client) ListUsers(ctx context.Context) ([]wire.User, error) {
	data, err := Call[wire.UserList](ctx, c, http.MethodGet, "/users", nil)
	return data.Users, err
}
