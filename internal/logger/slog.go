package logger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// handlerLogger adapts slog.Handler to Logger.
// Source points at the caller of Debug/Info/Warn/Error, not at this file.
type handlerLogger struct {
	h slog.Handler
}

func (l *handlerLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.h.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, log, level method

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.h.Handle(ctx, r)
}

func (l *handlerLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *handlerLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *handlerLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *handlerLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *handlerLogger) With(args ...any) Logger {
	return &handlerLogger{h: slog.New(l.h).With(args...).Handler()}
}

func (l *handlerLogger) WithGroup(name string) Logger {
	return &handlerLogger{h: l.h.WithGroup(name)}
}

var levels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

func parseLevel(level string) (slog.Level, error) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// trimSource keeps only the file name of the source
func trimSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok {
		src.File = filepath.Base(src.File)
	}
	return a
}
