package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository"
)

type TaskRepo struct {
	DB DBTX
}

const taskColumns = `id, title, description, status, priority, due_date, created_by, assignee_id, created_at, updated_at`

const createTask = `-- name: CreateTask
INSERT INTO tasks (id, title, description, status, priority, due_date, created_by, assignee_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + taskColumns

func (r *TaskRepo) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}

	rows, _ := r.DB.Query(ctx, createTask,
		uuid.New(), t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.CreatedBy, t.AssigneeID,
	)
	task, err := pgx.CollectOneRow(rows, rowToTask)
	if err != nil {
		if isForeignKeyViolation(err) {
			return task, apperrors.ErrUserNotFound
		}
		return task, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

const getTask = `-- name: GetTask
SELECT ` + taskColumns + ` FROM tasks
WHERE id = $1
`

func (r *TaskRepo) GetTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, getTask, id)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const updateTask = `-- name: UpdateTask
UPDATE tasks
SET title = $2, description = $3, status = $4, priority = $5, due_date = $6, assignee_id = $7, updated_at = now()
WHERE id = $1
RETURNING ` + taskColumns

func (r *TaskRepo) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, updateTask,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.AssigneeID,
	)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	case isForeignKeyViolation(err):
		return task, apperrors.ErrUserNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const deleteTask = `-- name: DeleteTask
DELETE FROM tasks WHERE id = $1
`

func (r *TaskRepo) DeleteTask(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTask, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// Empty filters are passed as NULL or '' and match everything
const listTasks = `-- name: ListTasks
SELECT ` + taskColumns + ` FROM tasks
WHERE ($1::uuid IS NULL OR created_by = $1 OR assignee_id = $1)
  AND ($2::text = '' OR status = $2)
  AND ($3::text = '' OR priority = $3)
  AND ($4::uuid IS NULL OR assignee_id = $4)
ORDER BY created_at DESC, id
`

func (r *TaskRepo) ListTasks(ctx context.Context, opts repository.ListTasksOpts) ([]models.Task, error) {
	rows, _ := r.DB.Query(ctx, listTasks,
		opts.VisibleTo, string(opts.Status), string(opts.Priority), opts.AssigneeID,
	)
	tasks, err := pgx.CollectRows(rows, rowToTask)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tasks, nil
}

func rowToTask(row pgx.CollectableRow) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.CreatedBy, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
