package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository"
	"github.com/nkiryanov/taskmanager/internal/service/validate"
)

type TaskService struct {
	taskRepo repository.TaskRepo
	userRepo repository.UserRepo
}

func NewService(taskRepo repository.TaskRepo, userRepo repository.UserRepo) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// Input is used both to create a task and to replace all its fields
type Input struct {
	Title       string              `json:"title" validate:"required,min=1,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Status      models.TaskStatus   `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority    models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time          `json:"dueDate"`
	AssigneeID  *uuid.UUID          `json:"assigneeId"`
}

type Filter struct {
	Status     models.TaskStatus   `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority   models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID *uuid.UUID          `json:"assignee"`
}

func (s *TaskService) prepare(ctx context.Context, in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = models.TaskStatusTodo
	}
	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}

	if err := validate.Struct(in); err != nil {
		return in, err
	}

	if in.AssigneeID != nil {
		_, err := s.userRepo.GetUserByID(ctx, *in.AssigneeID)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrUserNotFound):
			return in, apperrors.NewValidationError("assigneeId", "User not found")
		default:
			return in, fmt.Errorf("can't check assignee. Err: %w", err)
		}
	}

	return in, nil
}

func (s *TaskService) CreateTask(ctx context.Context, p access.Principal, in Input) (models.Task, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return models.Task{}, err
	}

	return s.taskRepo.CreateTask(ctx, models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedBy:   p.ID,
		AssigneeID:  in.AssigneeID,
	})
}

func (s *TaskService) GetTask(ctx context.Context, p access.Principal, taskID uuid.UUID) (models.Task, error) {
	t, err := s.taskRepo.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !access.CanViewTask(p, t) {
		return models.Task{}, apperrors.ErrForbidden
	}
	return t, nil
}

// ListTasks returns tasks the principal may see: everything for admins,
// created or assigned ones for everybody else.
func (s *TaskService) ListTasks(ctx context.Context, p access.Principal, f Filter) ([]models.Task, error) {
	if err := validate.Struct(f); err != nil {
		return nil, err
	}

	opts := repository.ListTasksOpts{
		Status:     f.Status,
		Priority:   f.Priority,
		AssigneeID: f.AssigneeID,
	}
	if !p.Role.IsAtLeast(models.RoleAdmin) {
		opts.VisibleTo = &p.ID
	}

	return s.taskRepo.ListTasks(ctx, opts)
}

func (s *TaskService) UpdateTask(ctx context.Context, p access.Principal, taskID uuid.UUID, in Input) (models.Task, error) {
	t, err := s.taskRepo.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if !access.CanModifyTask(p, t) {
		return models.Task{}, apperrors.ErrForbidden
	}

	in, err = s.prepare(ctx, in)
	if err != nil {
		return models.Task{}, err
	}

	t.Title = in.Title
	t.Description = in.Description
	t.Status = in.Status
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	t.AssigneeID = in.AssigneeID

	return s.taskRepo.UpdateTask(ctx, t)
}

func (s *TaskService) DeleteTask(ctx context.Context, p access.Principal, taskID uuid.UUID) error {
	t, err := s.taskRepo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !access.CanDeleteTask(p, t) {
		return apperrors.ErrForbidden
	}

	return s.taskRepo.DeleteTask(ctx, taskID)
}
