package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/repository/postgres"
	"github.com/nkiryanov/taskmanager/internal/testutil"
)

func TestTask(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type actors struct {
		owner, worker, stranger, admin access.Principal
	}

	inTx := func(t *testing.T, fn func(s *TaskService, a actors)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			create := func(email string, role models.Role) access.Principal {
				u, err := storage.User().CreateUser(t.Context(), models.User{Name: "Test", Email: email, HashedPassword: "hash", Role: role})
				require.NoError(t, err)
				return access.Principal{ID: u.ID, Role: u.Role}
			}

			a := actors{
				owner:    create("owner@example.com", models.RoleUser),
				worker:   create("worker@example.com", models.RoleUser),
				stranger: create("stranger@example.com", models.RoleUser),
				admin:    create("admin@example.com", models.RoleAdmin),
			}
			fn(NewService(storage.Task(), storage.User()), a)
		})
	}

	t.Run("create with defaults", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			task, err := s.CreateTask(t.Context(), a.owner, Input{Title: "  Write tests  "})

			require.NoError(t, err)
			require.Equal(t, "Write tests", task.Title)
			require.Equal(t, models.TaskStatusTodo, task.Status)
			require.Equal(t, models.TaskPriorityMedium, task.Priority)
			require.Equal(t, a.owner.ID, task.CreatedBy)
		})
	})

	t.Run("create validation", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			_, err := s.CreateTask(t.Context(), a.owner, Input{Title: "", Status: "someday", Priority: "urgent"})

			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Contains(t, vErr.Fields, "title")
			require.Contains(t, vErr.Fields, "status")
			require.Contains(t, vErr.Fields, "priority")
		})
	})

	t.Run("create with unknown assignee", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			ghost := uuid.New()

			_, err := s.CreateTask(t.Context(), a.owner, Input{Title: "x", AssigneeID: &ghost})

			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, "User not found", vErr.Fields["assigneeId"])
		})
	})

	t.Run("visibility", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			task, err := s.CreateTask(t.Context(), a.owner, Input{Title: "shared", AssigneeID: &a.worker.ID})
			require.NoError(t, err)
			_, err = s.CreateTask(t.Context(), a.stranger, Input{Title: "private"})
			require.NoError(t, err)

			for _, p := range []access.Principal{a.owner, a.worker, a.admin} {
				got, err := s.GetTask(t.Context(), p, task.ID)
				require.NoError(t, err)
				require.Equal(t, task.ID, got.ID)
			}
			_, err = s.GetTask(t.Context(), a.stranger, task.ID)
			require.ErrorIs(t, err, apperrors.ErrForbidden)

			workerTasks, err := s.ListTasks(t.Context(), a.worker, Filter{})
			require.NoError(t, err)
			require.Len(t, workerTasks, 1)

			adminTasks, err := s.ListTasks(t.Context(), a.admin, Filter{})
			require.NoError(t, err)
			require.Len(t, adminTasks, 2, "admin sees everything")

			_, err = s.ListTasks(t.Context(), a.admin, Filter{Status: "later"})
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	})

	t.Run("update", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			task, err := s.CreateTask(t.Context(), a.owner, Input{Title: "draft", AssigneeID: &a.worker.ID})
			require.NoError(t, err)
			due := time.Now().Add(time.Hour).Truncate(time.Microsecond)

			updated, err := s.UpdateTask(t.Context(), a.worker, task.ID, Input{
				Title:      "final",
				Status:     models.TaskStatusDone,
				Priority:   models.TaskPriorityHigh,
				DueDate:    &due,
				AssigneeID: &a.worker.ID,
			})
			require.NoError(t, err, "assignee may update")
			require.Equal(t, "final", updated.Title)
			require.Equal(t, models.TaskStatusDone, updated.Status)
			require.True(t, due.Equal(*updated.DueDate))

			_, err = s.UpdateTask(t.Context(), a.stranger, task.ID, Input{Title: "hijack"})
			require.ErrorIs(t, err, apperrors.ErrForbidden)

			_, err = s.UpdateTask(t.Context(), a.owner, uuid.New(), Input{Title: "x"})
			require.ErrorIs(t, err, apperrors.ErrTaskNotFound)
		})
	})

	t.Run("delete", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			task, err := s.CreateTask(t.Context(), a.owner, Input{Title: "temp", AssigneeID: &a.worker.ID})
			require.NoError(t, err)

			require.ErrorIs(t, s.DeleteTask(t.Context(), a.worker, task.ID), apperrors.ErrForbidden, "assignee can't delete")
			require.ErrorIs(t, s.DeleteTask(t.Context(), a.stranger, task.ID), apperrors.ErrForbidden)
			require.NoError(t, s.DeleteTask(t.Context(), a.admin, task.ID))
			require.ErrorIs(t, s.DeleteTask(t.Context(), a.owner, task.ID), apperrors.ErrTaskNotFound)
		})
	})

	t.Run("filters", func(t *testing.T) {
		inTx(t, func(s *TaskService, a actors) {
			_, err := s.CreateTask(t.Context(), a.owner, Input{Title: "low", Priority: models.TaskPriorityLow})
			require.NoError(t, err)
			high, err := s.CreateTask(t.Context(), a.owner, Input{Title: "high", Priority: models.TaskPriorityHigh, AssigneeID: &a.worker.ID})
			require.NoError(t, err)

			got, err := s.ListTasks(t.Context(), a.owner, Filter{Priority: models.TaskPriorityHigh})
			require.NoError(t, err)
			require.Equal(t, []models.Task{high}, got)

			got, err = s.ListTasks(t.Context(), a.owner, Filter{AssigneeID: &a.worker.ID})
			require.NoError(t, err)
			require.Equal(t, []models.Task{high}, got)
		})
	})
}
