// Package access holds the capability checks shared by the server
// middleware and the client route guard.
package access

import (
	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
)

// Principal is whoever makes the request
type Principal struct {
	ID   uuid.UUID
	Role models.Role
}

// Requirement is what a route or endpoint demands from the caller.
// The zero value means a public resource.
type Requirement struct {
	Authenticated bool
	MinRole       models.Role // implies Authenticated
}

var (
	Public        = Requirement{}
	Authenticated = Requirement{Authenticated: true}
	AdminOnly     = Requirement{Authenticated: true, MinRole: models.RoleAdmin}
)

// Check decides whether principal (nil when anonymous) satisfies req.
// Returns apperrors.ErrUnauthenticated or apperrors.ErrForbidden on failure.
func Check(p *Principal, req Requirement) error {
	if !req.Authenticated && req.MinRole == "" {
		return nil
	}
	if p == nil {
		return apperrors.ErrUnauthenticated
	}
	if req.MinRole != "" && !p.Role.IsAtLeast(req.MinRole) {
		return apperrors.ErrForbidden
	}
	return nil
}

// Satisfies is Check reduced to a boolean
func Satisfies(p *Principal, req Requirement) bool {
	return Check(p, req) == nil
}

func isAdmin(p Principal) bool {
	return p.Role.IsAtLeast(models.RoleAdmin)
}

func isAssignee(p Principal, t models.Task) bool {
	return t.AssigneeID != nil && *t.AssigneeID == p.ID
}

// CanViewTask: creator, assignee or admin
func CanViewTask(p Principal, t models.Task) bool {
	return isAdmin(p) || t.CreatedBy == p.ID || isAssignee(p, t)
}

// CanModifyTask: creator, assignee or admin
func CanModifyTask(p Principal, t models.Task) bool {
	return CanViewTask(p, t)
}

// CanDeleteTask: creator or admin
func CanDeleteTask(p Principal, t models.Task) bool {
	return isAdmin(p) || t.CreatedBy == p.ID
}
