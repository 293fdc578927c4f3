// Package transport is the client request pipeline: it attaches the session
// token to API requests and recovers from expired sessions.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/nkiryanov/taskmanager/internal/client/api"
	"github.com/nkiryanov/taskmanager/internal/client/guard"
	"github.com/nkiryanov/taskmanager/internal/logger"
)

type tokenSource interface {
	Token() (string, bool)
}

type session interface {
	tokenSource
	Refresh(ctx context.Context) error
	Logout(ctx context.Context, navigate bool)
}

// New builds the pipeline: Recover(Attach(base)).
// Requests to hosts other than origin pass through untouched.
func New(base http.RoundTripper, s session, origin *url.URL, nav guard.Navigator, l logger.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Recover{
		Next:      &Attach{Next: base, Session: s, Origin: origin},
		Session:   s,
		Origin:    origin,
		Navigator: nav,
		Logger:    l,
	}
}

func sameOrigin(origin *url.URL, u *url.URL) bool {
	return origin != nil && u.Scheme == origin.Scheme && u.Host == origin.Host
}

// Attach adds the bearer token of the current session to API requests.
// Cookies are added by the http.Client jar.
type Attach struct {
	Next    http.RoundTripper
	Session tokenSource
	Origin  *url.URL
}

func (a *Attach) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := a.Session.Token()
	if !ok || !sameOrigin(a.Origin, req.URL) {
		return a.Next.RoundTrip(req)
	}

	// RoundTripper must not modify the request it was given
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return a.Next.RoundTrip(r)
}

// Recover handles auth failures of API requests:
//   - 401 on an auth flow request is returned as is;
//   - 401 with a session refreshes once and retries the request once,
//     if refresh fails the session is dropped and the user sent to login;
//   - 401 without a session is returned as is;
//   - 403 sends the user to the default view, no refresh, unless it is an auth flow request.
type Recover struct {
	Next      http.RoundTripper
	Session   session
	Origin    *url.URL
	Navigator guard.Navigator
	Logger    logger.Logger
}

func (rc *Recover) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rc.Next.RoundTrip(req)
	if err != nil || !sameOrigin(rc.Origin, req.URL) {
		return resp, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return rc.recover(req, resp)
	case http.StatusForbidden:
		if !api.IsAuthFlow(req.Context()) {
			rc.navigate(guard.DefaultPath)
		}
	}
	return resp, nil
}

func (rc *Recover) recover(req *http.Request, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()

	if api.IsAuthFlow(ctx) {
		return resp, nil
	}
	if _, ok := rc.Session.Token(); !ok {
		return resp, nil
	}

	if err := rc.Session.Refresh(ctx); err != nil {
		rc.Logger.Info("Session could not be refreshed, logging out", "uri", req.URL.Path, "error", err)
		rc.Session.Logout(ctx, true)
		return resp, nil
	}

	retry, ok := rewind(req)
	if !ok {
		rc.Logger.Warn("Request body can't be replayed, not retrying", "uri", req.URL.Path)
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	// Exactly one retry. Its answer is final, a second 401 is not recovered.
	return rc.Next.RoundTrip(retry)
}

func (rc *Recover) navigate(path string) {
	if rc.Navigator != nil {
		rc.Navigator.Navigate(path)
	}
}

// rewind returns a copy of req with a fresh body
func rewind(req *http.Request) (*http.Request, bool) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, true
	}
	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	r.Body = body
	return r, true
}
