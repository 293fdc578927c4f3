package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/nkiryanov/taskmanager/internal/client/guard"
	"github.com/nkiryanov/taskmanager/internal/client/session"
)

// Console is the terminal the REPL, navigation and session events all write to.
// The refresh timer publishes from its own goroutine, so writes are serialized.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	view string
	last session.State
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, view: guard.LoginPath}
}

func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, format, args...)
}

// Navigate implements guard.Navigator by switching the current view and telling the user
func (c *Console) Navigate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = path
	_, _ = fmt.Fprintf(c.w, "-> %s\n", path)
}

// View is the path of the view the user is on
func (c *Console) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Console) enter(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = path
}

// OnSession prints sign in and sign out. Refreshes re-publish Authenticated and stay quiet.
func (c *Console) OnSession(s session.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.State == c.last || s.State == session.Authenticating {
		return
	}
	c.last = s.State

	switch {
	case s.State == session.Authenticated && s.User != nil:
		_, _ = fmt.Fprintf(c.w, "* signed in as %s\n", s.User.Email)
	case s.State == session.Anonymous:
		_, _ = fmt.Fprintln(c.w, "* signed out")
	}
}
