// Package cli is the interactive terminal front end of taskctl.
//
// Each command opens a view. Views are gated by the route guard the same way the
// server gates its endpoints, so an anonymous user typing "tasks" is sent to login
// and a regular user typing "users" is sent back to the task list.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskmanager/internal/access"
	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/client/api"
	"github.com/nkiryanov/taskmanager/internal/client/guard"
	"github.com/nkiryanov/taskmanager/internal/client/session"
	"github.com/nkiryanov/taskmanager/internal/models"
	"github.com/nkiryanov/taskmanager/internal/wire"
)

var (
	routeProfile = guard.Route{Path: "/profile", Requirement: access.Authenticated}
	routeTasks   = guard.Route{Path: guard.DefaultPath, Requirement: access.Authenticated}
	routeNewTask = guard.Route{Path: "/tasks/new", Requirement: access.Authenticated}
	routeUsers   = guard.Route{Path: "/users", Requirement: access.AdminOnly}
)

var errUsage = errors.New("usage")

type Session interface {
	guard.State
	Register(ctx context.Context, name string, email string, password string) (session.User, error)
	Login(ctx context.Context, email string, password string) (session.User, error)
	Logout(ctx context.Context, navigate bool)
	Snapshot() session.Snapshot
}

type API interface {
	ListTasks(ctx context.Context, f api.TaskFilter) ([]wire.Task, error)
	CreateTask(ctx context.Context, req wire.TaskRequest) (wire.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (wire.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, req wire.TaskRequest) (wire.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]wire.User, error)
}

type command struct {
	usage   string
	route   *guard.Route
	minArgs int
	run     func(ctx context.Context, args []string) error
}

type Shell struct {
	session  Session
	api      API
	console  *Console
	password PasswordFunc
	commands map[string]command
}

func New(s Session, a API, console *Console, password PasswordFunc) *Shell {
	sh := &Shell{session: s, api: a, console: console, password: password}

	sh.commands = map[string]command{
		"register": {usage: "register <email> <name>", minArgs: 2, run: sh.register},
		"login":    {usage: "login <email>", minArgs: 1, run: sh.login},
		"logout":   {usage: "logout", run: sh.logout},
		"whoami":   {usage: "whoami", route: &routeProfile, run: sh.whoami},
		"tasks":    {usage: "tasks [todo|in-progress|done]", route: &routeTasks, run: sh.tasks},
		"add":      {usage: "add <title>", route: &routeNewTask, minArgs: 1, run: sh.add},
		"done":     {usage: "done <task id>", route: &routeTasks, minArgs: 1, run: sh.done},
		"rm":       {usage: "rm <task id>", route: &routeTasks, minArgs: 1, run: sh.remove},
		"users":    {usage: "users", route: &routeUsers, run: sh.users},
	}
	return sh
}

// Run reads commands from in until EOF, "quit" or ctx is done
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		sh.console.Printf("taskctl %s> ", sh.status())
		if !scanner.Scan() {
			sh.console.Printf("\n")
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "quit", "exit":
			sh.console.Printf("Bye!\n")
			return nil
		case "help":
			sh.help()
			continue
		}

		if err := sh.Exec(ctx, name, args); err != nil {
			sh.printError(err)
		}
	}
}

// Exec runs one command. Commands that open a view go through the route guard,
// register and login are reachable by anyone.
func (sh *Shell) Exec(ctx context.Context, name string, args []string) error {
	cmd, ok := sh.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, type 'help'", name)
	}
	if len(args) < cmd.minArgs {
		return fmt.Errorf("%w: %s", errUsage, cmd.usage)
	}

	if cmd.route != nil {
		if !guard.Enter(sh.session, *cmd.route, sh.console) {
			return nil
		}
		sh.console.enter(cmd.route.Path)
	}
	return cmd.run(ctx, args)
}

func (sh *Shell) status() string {
	snap := sh.session.Snapshot()
	if snap.State == session.Authenticated && snap.User != nil {
		return snap.User.Email
	}
	return snap.State.String()
}

func (sh *Shell) help() {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, name := range names {
		cmd := sh.commands[name]
		who := "anyone"
		if cmd.route != nil && cmd.route.Requirement.Authenticated {
			who = "signed in"
			if cmd.route.Requirement.MinRole != "" {
				who = string(cmd.route.Requirement.MinRole)
			}
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", cmd.usage, who)
	}
	_, _ = fmt.Fprintf(tw, "  help\tanyone\n  quit\tanyone\n")
	_ = tw.Flush()

	sh.console.Printf("Commands:\n%s", b.String())
}

func (sh *Shell) printError(err error) {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		sh.console.Printf("error: %s\n", apiErr.Message)
		keys := make([]string, 0, len(apiErr.Fields))
		for k := range apiErr.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			sh.console.Printf("  %s: %s\n", k, apiErr.Fields[k])
		}
	case errors.Is(err, apperrors.ErrNetwork):
		sh.console.Printf("error: server is unreachable\n")
	case errors.Is(err, apperrors.ErrSessionNotEstablished):
		sh.console.Printf("error: login did not complete, please try again\n")
	default:
		sh.console.Printf("error: %s\n", err)
	}
}

func (sh *Shell) register(ctx context.Context, args []string) error {
	email, name := args[0], strings.Join(args[1:], " ")

	password, err := sh.password("Password: ")
	if err != nil {
		return err
	}

	if _, err := sh.session.Register(ctx, name, email, password); err != nil {
		return err
	}
	sh.console.Printf("Registered %s, you can login now\n", email)
	return nil
}

func (sh *Shell) login(ctx context.Context, args []string) error {
	// view is the login redirect that brought the user here, if any
	back := guard.ReturnPath(sh.console.View())

	password, err := sh.password("Password: ")
	if err != nil {
		return err
	}

	if _, err := sh.session.Login(ctx, args[0], password); err != nil {
		return err
	}
	sh.console.Navigate(back)
	return nil
}

func (sh *Shell) logout(ctx context.Context, _ []string) error {
	sh.session.Logout(ctx, true)
	return nil
}

func (sh *Shell) whoami(_ context.Context, _ []string) error {
	snap := sh.session.Snapshot()
	if snap.User == nil {
		return apperrors.ErrNoSession
	}

	sh.console.Printf("%s <%s>, role %s, session until %s\n",
		snap.User.Name, snap.User.Email, snap.User.Role, snap.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (sh *Shell) tasks(ctx context.Context, args []string) error {
	var f api.TaskFilter
	if len(args) > 0 {
		f.Status = models.TaskStatus(args[0])
	}

	tasks, err := sh.api.ListTasks(ctx, f)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		sh.console.Printf("No tasks\n")
		return nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(time.DateOnly)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, due)
	}
	_ = tw.Flush()

	sh.console.Printf("%s", b.String())
	return nil
}

func (sh *Shell) add(ctx context.Context, args []string) error {
	t, err := sh.api.CreateTask(ctx, wire.TaskRequest{Title: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	sh.console.Printf("Created %s\n", t.ID)
	return nil
}

func (sh *Shell) done(ctx context.Context, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	t, err := sh.api.GetTask(ctx, id)
	if err != nil {
		return err
	}

	// PUT replaces the task, so send it back whole
	_, err = sh.api.UpdateTask(ctx, id, wire.TaskRequest{
		Title:       t.Title,
		Description: t.Description,
		Status:      models.TaskStatusDone,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
	})
	if err != nil {
		return err
	}
	sh.console.Printf("Done: %s\n", t.Title)
	return nil
}

func (sh *Shell) remove(ctx context.Context, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	if err := sh.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	sh.console.Printf("Deleted %s\n", id)
	return nil
}

func (sh *Shell) users(ctx context.Context, _ []string) error {
	users, err := sh.api.ListUsers(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	_ = tw.Flush()

	sh.console.Printf("%s", b.String())
	return nil
}

func parseTaskID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q is not a task id", s)
	}
	return id, nil
}
