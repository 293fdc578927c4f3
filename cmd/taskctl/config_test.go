package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewConfig()

		require.Equal(t, "http://localhost:8000", c.ServerURL)
		require.Equal(t, 60*time.Second, c.RefreshMargin)
		require.Equal(t, "warn", c.LogLevel)
		require.NoError(t, c.Validate())
	})

	t.Run("env", func(t *testing.T) {
		c := NewConfig()
		env := map[string]string{
			"TASKCTL_SERVER":         "https://tasks.example.com",
			"TASKCTL_REFRESH_MARGIN": "2m",
			"LOG_LEVEL":              "debug",
		}

		err := c.LoadEnv(func(key string) string { return env[key] })

		require.NoError(t, err)
		require.Equal(t, "https://tasks.example.com", c.ServerURL)
		require.Equal(t, 2*time.Minute, c.RefreshMargin)
		require.Equal(t, "debug", c.LogLevel)
	})

	t.Run("env invalid margin", func(t *testing.T) {
		c := NewConfig()

		err := c.LoadEnv(func(key string) string {
			if key == "TASKCTL_REFRESH_MARGIN" {
				return "soon"
			}
			return ""
		})

		require.ErrorContains(t, err, "TASKCTL_REFRESH_MARGIN")
	})

	t.Run("dotenv", func(t *testing.T) {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKCTL_SERVER=http://127.0.0.1:9000\n"), 0o600)
		require.NoError(t, err)
		c := NewConfig()

		err = c.LoadDotEnv(func() (string, error) { return dir, nil })

		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:9000", c.ServerURL)
	})

	t.Run("flags override env", func(t *testing.T) {
		c := NewConfig()
		require.NoError(t, c.LoadEnv(func(key string) string {
			if key == "TASKCTL_SERVER" {
				return "http://from-env"
			}
			return ""
		}))

		err := c.ParseFlags([]string{"--server", "http://from-flag", "-m", "30s"})

		require.NoError(t, err)
		require.Equal(t, "http://from-flag", c.ServerURL)
		require.Equal(t, 30*time.Second, c.RefreshMargin)
	})

	t.Run("validate", func(t *testing.T) {
		c := NewConfig()
		c.RefreshMargin = 0
		require.Error(t, c.Validate())

		c = NewConfig()
		c.ServerURL = ""
		require.Error(t, c.Validate())
	})
}
