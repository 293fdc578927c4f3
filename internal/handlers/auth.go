package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/handlers/render"
	"github.com/nkiryanov/taskmanager/internal/logger"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

func handleRegister(s authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[wire.RegisterRequest](w, r)
		if err != nil {
			return
		}

		user, err := s.Register(r.Context(), data.Name, data.Email, data.Password)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSONWithStatus(w, http.StatusCreated, "User registered successfully", wire.UserData{User: wire.NewUser(user)})
	}
}

func handleLogin(s authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[wire.LoginRequest](w, r)
		if err != nil {
			return
		}

		user, token, err := s.Authenticate(r.Context(), data.Email, data.Password)
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		s.SetTokenToResponse(w, token)
		render.JSON(w, "Login successful", wire.NewSession(user, token))
	}
}

// Token may come from the header or the cookie.
// Every failure to prove the session is still valid is a 401.
func handleRefresh(s authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, err := s.GetTokenFromRequest(r)
		if err != nil {
			render.ServiceError(w, render.MessageUnauthenticated, http.StatusUnauthorized)
			return
		}

		user, token, err := s.Refresh(r.Context(), current)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrTokenExpired):
			render.ServiceError(w, "Token expired", http.StatusUnauthorized)
			return
		case errors.Is(err, apperrors.ErrTokenMalformed), errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
			return
		default:
			renderError(w, r, l, err)
			return
		}

		s.SetTokenToResponse(w, token)
		render.JSON(w, "Token refreshed", wire.NewSession(user, token))
	}
}

// Logout always succeeds: the server keeps no session state, it only clears the cookie.
func handleLogout(s authService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.ClearTokenFromResponse(w)
		render.Message(w, "Logged out successfully")
	}
}

// Verify resumes a session from the cookie alone, so a client that lost its
// in-memory token can learn who it is after restart.
func handleVerify(s authService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := s.GetCookieToken(r)
		if err != nil {
			render.ServiceError(w, render.MessageUnauthenticated, http.StatusUnauthorized)
			return
		}

		user, resumed, err := s.Resume(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrTokenExpired):
			render.ServiceError(w, "Token expired", http.StatusUnauthorized)
			return
		case errors.Is(err, apperrors.ErrTokenMalformed), errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
			return
		default:
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, "Session is valid", wire.NewSession(user, resumed))
	}
}
