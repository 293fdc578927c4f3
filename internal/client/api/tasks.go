package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

type TaskFilter struct {
	Status     models.TaskStatus
	Priority   models.TaskPriority
	AssigneeID *uuid.UUID
}

func (f TaskFilter) query() string {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.AssigneeID != nil {
		q.Set("assignee", f.AssigneeID.String())
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) ListTasks(ctx context.Context, f TaskFilter) ([]wire.Task, error) {
	data, err := Call[wire.TaskList](ctx, c, http.MethodGet, "/tasks"+f.query(), nil)
	return data.Tasks, err
}

func (c *Client) CreateTask(ctx context.Context, req wire.TaskRequest) (wire.Task, error) {
	data, err := Call[wire.TaskData](ctx, c, http.MethodPost, "/tasks", req)
	return data.Task, err
}

func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (wire.Task, error) {
	data, err := Call[wire.TaskData](ctx, c, http.MethodGet, "/tasks/"+id.String(), nil)
	return data.Task, err
}

// UpdateTask replaces all editable fields of the task
func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, req wire.TaskRequest) (wire.Task, error) {
	data, err := Call[wire.TaskData](ctx, c, http.MethodPut, "/tasks/"+id.String(), req)
	return data.Task, err
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return c.Exec(ctx, http.MethodDelete, "/tasks/"+id.String(), nil)
}
