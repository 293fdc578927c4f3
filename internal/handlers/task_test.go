package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/testutil"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

func Test_TaskHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createTask := func(env *testEnv, token string, body string) wire.Task {
		resp, data := env.do("POST", "/tasks", token, body)
		require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", data)
		return decode[wire.TaskData](t, data).Task
	}

	t.Run("create with defaults", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			alice := env.register("Alice", "alice@example.com", "")
			token := env.login("alice@example.com")

			created := createTask(env, token, `{"title": "Write docs"}`)

			require.Equal(t, "Write docs", created.Title)
			require.Equal(t, models.TaskStatusTodo, created.Status)
			require.Equal(t, models.TaskPriorityMedium, created.Priority)
			require.Equal(t, alice.ID, created.CreatedBy)
		})
	})

	t.Run("create invalid", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Alice", "alice@example.com", "")
			token := env.login("alice@example.com")

			resp, body := env.do("POST", "/tasks", token, `{"title": "", "status": "later"}`)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{
				"success": false,
				"error": "validation_error",
				"message": "Validation failed",
				"fields": {
					"title": "This field is required",
					"status": "Must be one of: todo, in-progress, done"
				}
			}`, body)
		})
	})

	t.Run("get update delete own task", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Alice", "alice@example.com", "")
			token := env.login("alice@example.com")
			created := createTask(env, token, `{"title": "Write docs"}`)
			path := "/tasks/" + created.ID.String()

			resp, body := env.do("GET", path, token, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Equal(t, created.ID, decode[wire.TaskData](t, body).Task.ID)

			resp, body = env.do("PUT", path, token, `{"title": "Write more docs", "status": "done", "priority": "high"}`)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			updated := decode[wire.TaskData](t, body).Task
			require.Equal(t, "Write more docs", updated.Title)
			require.Equal(t, models.TaskStatusDone, updated.Status)

			resp, body = env.do("DELETE", path, token, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = env.do("GET", path, token, "")
			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"success": false, "error": "not_found", "message": "Task not found"}`, body)
		})
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Alice", "alice@example.com", "")
			token := env.login("alice@example.com")

			resp, body := env.do("GET", "/tasks/not-a-uuid", token, "")

			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("stranger gets forbidden", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Alice", "alice@example.com", "")
			env.register("Bob", "bob@example.com", "")
			alice := env.login("alice@example.com")
			bob := env.login("bob@example.com")
			created := createTask(env, alice, `{"title": "Alice only"}`)
			path := "/tasks/" + created.ID.String()

			for _, method := range []string{"GET", "DELETE"} {
				resp, body := env.do(method, path, bob, "")
				require.Equalf(t, http.StatusForbidden, resp.StatusCode, "%s: not expected code. Body: %s", method, body)
			}
		})
	})

	t.Run("assignee may update but not delete", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Alice", "alice@example.com", "")
			bobUser := env.register("Bob", "bob@example.com", "")
			alice := env.login("alice@example.com")
			bob := env.login("bob@example.com")
			created := createTask(env, alice, fmt.Sprintf(`{"title": "For Bob", "assigneeId": %q}`, bobUser.ID))
			path := "/tasks/" + created.ID.String()

			resp, body := env.do("PUT", path, bob, fmt.Sprintf(`{"title": "For Bob", "status": "in-progress", "assigneeId": %q}`, bobUser.ID))
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = env.do("DELETE", path, bob, "")
			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("list shows only visible tasks", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Root", "root@example.com", models.RoleAdmin)
			env.register("Alice", "alice@example.com", "")
			env.register("Bob", "bob@example.com", "")
			root := env.login("root@example.com")
			alice := env.login("alice@example.com")
			bob := env.login("bob@example.com")

			createTask(env, alice, `{"title": "Alice 1"}`)
			createTask(env, alice, `{"title": "Alice 2", "status": "done"}`)
			createTask(env, bob, `{"title": "Bob 1"}`)

			list := func(token string, query string) []wire.Task {
				resp, body := env.do("GET", "/tasks"+query, token, "")
				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				return decode[wire.TaskList](t, body).Tasks
			}

			require.Len(t, list(alice, ""), 2)
			require.Len(t, list(alice, "?status=done"), 1)
			require.Len(t, list(bob, ""), 1)
			require.Len(t, list(root, ""), 3, "admin sees all tasks")
		})
	})

	t.Run("list bad assignee filter", func(t *testing.T) {
		withServer(pg.Pool, t, nil, func(env *testEnv) {
			env.register("Alice", "alice@example.com", "")
			token := env.login("alice@example.com")

			resp, body := env.do("GET", "/tasks?assignee=nope", token, "")

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})
}
