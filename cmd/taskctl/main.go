// taskctl is an interactive terminal client for the task manager API
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkiryanov/taskmanager/internal/client"
	"github.com/nkiryanov/taskmanager/internal/client/cli"
	"github.com/nkiryanov/taskmanager/internal/logger"
)

// terminal is where the REPL talks to the user
type terminal struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	password cli.PasswordFunc
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := terminal{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, password: cli.TerminalPassword(os.Stdout)}
	if err := run(ctx, term, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("taskctl stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, term terminal, getenv func(string) string, getwd func() (string, error), args []string) error {
	c := NewConfig()

	if err := c.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("can't load .env: %w", err)
	}
	if err := c.LoadEnv(getenv); err != nil {
		return err
	}
	if err := c.ParseFlags(args); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logger.NewWriterLogger(term.errOut, c.LogLevel)
	if err != nil {
		return fmt.Errorf("can't initialize logger: %w", err)
	}

	console := cli.NewConsole(term.out)
	tc, err := client.New(client.Config{
		ServerURL:     c.ServerURL,
		RefreshMargin: c.RefreshMargin,
		Navigator:     console,
		Logger:        l,
	})
	if err != nil {
		return err
	}
	unsubscribe := tc.Session.Subscribe(console.OnSession)
	defer unsubscribe()

	console.Printf("Task manager at %s (type 'help' for commands)\n", c.ServerURL)
	tc.Session.VerifyOnLoad(ctx)

	shell := cli.New(tc.Session, tc.API, console, term.password)
	return shell.Run(ctx, term.in)
}
