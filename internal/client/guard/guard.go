// Package guard decides whether the current session may open a view.
// It reads session state only and never performs I/O.
package guard

import (
	"errors"
	"net/url"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/apperrors"
)

const (
	LoginPath   = "/login"
	DefaultPath = "/tasks"
)

// Navigator moves the front end to another view
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// State is the read side of the session manager
type State interface {
	// Principal is nil unless the session is authenticated
	Principal() *access.Principal
}

type Route struct {
	Path        string
	Requirement access.Requirement
}

type Decision struct {
	Allow    bool
	Redirect string
}

// Check permits the route or tells where to go instead: login (remembering the
// requested path) for anonymous users, the default view when the role is too low.
func Check(s State, r Route) Decision {
	err := access.Check(s.Principal(), r.Requirement)
	switch {
	case err == nil:
		return Decision{Allow: true}
	case errors.Is(err, apperrors.ErrForbidden):
		return Decision{Redirect: DefaultPath}
	default:
		return Decision{Redirect: LoginRedirect(r.Path)}
	}
}

// Enter checks the route and navigates away if it is not allowed
func Enter(s State, r Route, nav Navigator) bool {
	d := Check(s, r)
	if !d.Allow && nav != nil {
		nav.Navigate(d.Redirect)
	}
	return d.Allow
}

// LoginRedirect is the login view that returns to path after login
func LoginRedirect(path string) string {
	if path == "" || path == LoginPath {
		return LoginPath
	}
	return LoginPath + "?redirect=" + url.QueryEscape(path)
}

// ReturnPath extracts where to go after login from a login redirect
func ReturnPath(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return DefaultPath
	}
	if p := u.Query().Get("redirect"); p != "" {
		return p
	}
	return DefaultPath
}
