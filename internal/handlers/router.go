package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/handlers/middleware"
	"github.com/nkiryanov/taskmanager/internal/handlers/render"
	"github.com/nkiryanov/taskmanager/internal/logger"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/service/task"
	"github.com/nkiryanov/taskmanager/internal/service/user"
)

func NewRouter(
	authService authService,
	userService userService,
	taskService taskService,
	logger logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.AccessLog(logger),
		chimw.Recoverer,
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		render.ServiceError(w, "Resource not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		render.ServiceError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handleRegister(authService, logger))
		r.Post("/login", handleLogin(authService, logger))
		r.Post("/refresh", handleRefresh(authService, logger))
		r.Post("/logout", handleLogout(authService))
		r.Get("/verify", handleVerify(authService, logger))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(authService, logger))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", handleUserMe())
			r.Patch("/me", handleUpdateMe(userService, logger))
			r.With(middleware.Require(access.AdminOnly)).Get("/", handleListUsers(userService, logger))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", handleListTasks(taskService, logger))
			r.Post("/", handleCreateTask(taskService, logger))
			r.Get("/{taskID}", handleGetTask(taskService, logger))
			r.Put("/{taskID}", handleUpdateTask(taskService, logger))
			r.Delete("/{taskID}", handleDeleteTask(taskService, logger))
		})
	})

	return r
}

type authService interface {
	// Register user. Has to return apperrors.ErrDuplicateEmail if email is taken
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Authenticate by email and password
	// Has to return apperrors.ErrInvalidCredentials on any mismatch
	Authenticate(ctx context.Context, email string, password string) (models.User, models.IssuedToken, error)

	// Refresh verifies token and issues a new one for the same user
	Refresh(ctx context.Context, token string) (models.User, models.IssuedToken, error)

	// Resume returns the user a valid token belongs to and the token itself
	Resume(ctx context.Context, token string) (models.User, models.IssuedToken, error)

	SetTokenToResponse(w http.ResponseWriter, token models.IssuedToken)
	ClearTokenFromResponse(w http.ResponseWriter)

	// Token from Authorization header or cookie
	GetTokenFromRequest(r *http.Request) (string, error)

	// Token from cookie only
	GetCookieToken(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in user.ProfileInput) (models.User, error)
}

type taskService interface {
	CreateTask(ctx context.Context, p access.Principal, in task.Input) (models.Task, error)
	GetTask(ctx context.Context, p access.Principal, taskID uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, p access.Principal, f task.Filter) ([]models.Task, error)
	UpdateTask(ctx context.Context, p access.Principal, taskID uuid.UUID, in task.Input) (models.Task, error)
	DeleteTask(ctx context.Context, p access.Principal, taskID uuid.UUID) error
}

// renderError writes err and logs it when it is not an expected service error
func renderError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	if code := render.Error(w, err); code >= http.StatusInternalServerError {
		l.Error("request failed", "request_id", chimw.GetReqID(r.Context()), "uri", r.RequestURI, "error", err)
	}
}
