// Package userctx carries the authenticated user through a request context
package userctx

import (
	"context"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/models"
)

type userKey struct{}

// New stores u in ctx. Set by the auth middleware only.
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}

// Principal of the request, nil if nobody is authenticated
func Principal(ctx context.Context) *access.Principal {
	u, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return &access.Principal{ID: u.ID, Role: u.Role}
}
