// Package logger is the structured logging contract shared by the API server
// and the terminal client, implemented over log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// EnvProduction switches New to the JSON handler
const EnvProduction = "production"

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// New returns JSON logger for production and text logger otherwise, both writing to stderr
func New(env string, level string) (Logger, error) {
	if env == EnvProduction {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}

func NewTextLogger(level string) (Logger, error) {
	return newLogger(os.Stderr, false, level)
}

func NewJSONLogger(level string) (Logger, error) {
	return newLogger(os.Stderr, true, level)
}

// NewWriterLogger creates a text logger writing to w.
// The terminal client uses it to keep log lines apart from the prompt.
func NewWriterLogger(w io.Writer, level string) (Logger, error) {
	return newLogger(w, false, level)
}

// NewNoOpLogger discards everything
func NewNoOpLogger() Logger {
	return &handlerLogger{h: slog.DiscardHandler}
}

func newLogger(w io.Writer, json bool, level string) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl, AddSource: true, ReplaceAttr: trimSource}
	if json {
		return &handlerLogger{h: slog.NewJSONHandler(w, opts)}, nil
	}
	return &handlerLogger{h: slog.NewTextHandler(w, opts)}, nil
}
