package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/handlers/render"
	"github.com/nkiryanov/taskmanager/internal/handlers/userctx"
	"github.com/nkiryanov/taskmanager/internal/logger"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/service/task"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

func taskInput(req wire.TaskRequest) task.Input {
	return task.Input{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	}
}

// Malformed id can't name an existing task
func taskID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		return uuid.Nil, apperrors.ErrTaskNotFound
	}
	return id, nil
}

func taskFilter(r *http.Request) (task.Filter, error) {
	q := r.URL.Query()
	f := task.Filter{
		Status:   models.TaskStatus(q.Get("status")),
		Priority: models.TaskPriority(q.Get("priority")),
	}

	if raw := q.Get("assignee"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperrors.NewValidationError("assignee", "Must be a valid id")
		}
		f.AssigneeID = &id
	}

	return f, nil
}

func handleListTasks(s taskService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := taskFilter(r)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		tasks, err := s.ListTasks(r.Context(), *userctx.Principal(r.Context()), f)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, "Tasks", wire.NewTaskList(tasks))
	}
}

func handleCreateTask(s taskService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[wire.TaskRequest](w, r)
		if err != nil {
			return
		}

		t, err := s.CreateTask(r.Context(), *userctx.Principal(r.Context()), taskInput(data))
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSONWithStatus(w, http.StatusCreated, "Task created", wire.TaskData{Task: wire.NewTask(t)})
	}
}

func handleGetTask(s taskService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		t, err := s.GetTask(r.Context(), *userctx.Principal(r.Context()), id)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, "Task", wire.TaskData{Task: wire.NewTask(t)})
	}
}

func handleUpdateTask(s taskService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		data, err := render.BindAndValidate[wire.TaskRequest](w, r)
		if err != nil {
			return
		}

		t, err := s.UpdateTask(r.Context(), *userctx.Principal(r.Context()), id, taskInput(data))
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, "Task updated", wire.TaskData{Task: wire.NewTask(t)})
	}
}

func handleDeleteTask(s taskService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		if err := s.DeleteTask(r.Context(), *userctx.Principal(r.Context()), id); err != nil {
			renderError(w, r, l, err)
			return
		}

		render.Message(w, "Task deleted")
	}
}
