package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/models"
)

// User repository interface
// Emails are compared case-insensitively by every method
type UserRepo interface {
	// Create user, id and timestamps are assigned by the repository
	// If user with the email exists already has to return error apperrors.ErrDuplicateEmail
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// Update name, email, role and password hash of the user
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrDuplicateEmail
	UpdateUser(ctx context.Context, user models.User) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// All users ordered by creation time
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Filter for ListTasks, zero fields are ignored
type ListTasksOpts struct {
	// Only tasks created by or assigned to the user
	VisibleTo  *uuid.UUID
	Status     models.TaskStatus
	Priority   models.TaskPriority
	AssigneeID *uuid.UUID
}

// Task repository interface
type TaskRepo interface {
	// Create task, id and timestamps are assigned by the repository
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// Get, update or delete task by id
	// If task not found must return apperrors.ErrTaskNotFound
	GetTask(ctx context.Context, taskID uuid.UUID) (models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	// Newest first
	ListTasks(ctx context.Context, opts ListTasksOpts) ([]models.Task, error)
}

type Storage interface {
	User() UserRepo
	Task() TaskRepo
}
