package handlers

import (
	"net/http"

	"github.com/nkiryanov/taskmanager/internal/handlers/render"
	"github.com/nkiryanov/taskmanager/internal/handlers/userctx"
	"github.com/nkiryanov/taskmanager/internal/logger"
	"github.com/nkiryanov/taskmanager/internal/service/user"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

func handleUserMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())
		render.JSON(w, "Current user", wire.UserData{User: wire.NewUser(u)})
	}
}

func handleUpdateMe(s userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[wire.ProfileRequest](w, r)
		if err != nil {
			return
		}

		current, _ := userctx.FromContext(r.Context())
		updated, err := s.UpdateProfile(r.Context(), current.ID, user.ProfileInput{Name: data.Name, Email: data.Email})
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		render.JSON(w, "Profile updated", wire.UserData{User: wire.NewUser(updated)})
	}
}

func handleListUsers(s userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.ListUsers(r.Context())
		if err != nil {
			renderError(w, r, l, err)
			return
		}

		list := wire.UserList{Users: make([]wire.User, 0, len(users))}
		for _, u := range users {
			list.Users = append(list.Users, wire.NewUser(u))
		}
		render.JSON(w, "Users", list)
	}
}
