package middleware

import (
	"context"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/handlers/render"
	"github.com/nkiryanov/taskmanager/internal/handlers/userctx"
	"github.com/nkiryanov/taskmanager/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type errorLogger interface {
	Error(msg string, args ...any)
}

// AuthMiddleware rejects requests without a valid token (header or cookie)
// and puts the token subject into the request context.
// Failures other than a rejected token (storage is down) are server errors, not 401.
func AuthMiddleware(as authService, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrTokenExpired):
				render.ServiceError(w, "Token expired", http.StatusUnauthorized)
				return
			case errors.Is(err, apperrors.ErrUnauthenticated),
				errors.Is(err, apperrors.ErrTokenMalformed),
				errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, render.MessageUnauthenticated, http.StatusUnauthorized)
				return
			default:
				if code := render.Error(w, err); code >= http.StatusInternalServerError {
					l.Error("auth failed", "request_id", chimw.GetReqID(r.Context()), "uri", r.RequestURI, "error", err)
				}
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests whose user does not meet req.
// Must be mounted after AuthMiddleware.
func Require(req access.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Check(userctx.Principal(r.Context()), req); err != nil {
				render.Error(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
