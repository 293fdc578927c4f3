package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/taskmanager/internal/logger"
)

const (
	defaultServerURL     = "http://localhost:8000"
	defaultRefreshMargin = 60 * time.Second
	defaultLoggingLevel  = logger.LevelWarn
)

type Config struct {
	// Task manager API server
	ServerURL string

	// How long before session expiry the token is refreshed
	RefreshMargin time.Duration

	// Logs go to stderr, keep it quiet by default so they don't mix with the REPL
	LogLevel string
}

func NewConfig() *Config {
	return &Config{
		ServerURL:     defaultServerURL,
		RefreshMargin: defaultRefreshMargin,
		LogLevel:      defaultLoggingLevel,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	if v := getenv("TASKCTL_SERVER"); v != "" {
		c.ServerURL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("TASKCTL_REFRESH_MARGIN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TASKCTL_REFRESH_MARGIN: %w", err)
		}
		c.RefreshMargin = d
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("taskctl", pflag.ContinueOnError)

	fs.StringVarP(&c.ServerURL, "server", "s", c.ServerURL, "Task manager API server")
	fs.DurationVarP(&c.RefreshMargin, "refresh-margin", "m", c.RefreshMargin, "Refresh session this long before it expires")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server url is required")
	}
	if c.RefreshMargin <= 0 {
		return errors.New("refresh margin must be positive")
	}
	return nil
}
