// Package client wires the task manager client: cookie jar, request pipeline,
// typed API and the session manager.
package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/nkiryanov/taskmanager/internal/client/api"
	"github.com/nkiryanov/taskmanager/internal/client/guard"
	"github.com/nkiryanov/taskmanager/internal/client/session"
	"github.com/nkiryanov/taskmanager/internal/client/transport"
	"github.com/nkiryanov/taskmanager/internal/logger"
)

type Config struct {
	// API server, e.g. http://localhost:8000
	ServerURL string

	// Refresh fires this long before token expiry
	RefreshMargin time.Duration

	// Optional. Receives redirects from logout, the pipeline and the guard
	Navigator guard.Navigator

	// Optional. Base transport under the pipeline
	Transport http.RoundTripper

	// Optional. Cookie storage, a fresh in-memory jar if nil
	Jar http.CookieJar

	// Optional. Clock for token expiry checks
	Clock func() time.Time

	Logger logger.Logger
}

type Client struct {
	API     *api.Client
	Session *session.Manager
}

func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	if cfg.Jar == nil {
		jar, err := NewJar()
		if err != nil {
			return nil, err
		}
		cfg.Jar = jar
	}

	httpClient := &http.Client{Jar: cfg.Jar}
	apiClient, err := api.New(cfg.ServerURL, httpClient, cfg.Logger)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(apiClient, session.Options{
		RefreshMargin: cfg.RefreshMargin,
		Clock:         cfg.Clock,
		Navigator:     cfg.Navigator,
		Logger:        cfg.Logger,
	})

	// The pipeline needs the manager, the manager needs the API client: close the loop here
	httpClient.Transport = transport.New(cfg.Transport, manager, apiClient.BaseURL, cfg.Navigator, cfg.Logger)

	return &Client{API: apiClient, Session: manager}, nil
}

// NewJar returns an in-memory cookie jar that scopes cookies by public suffix
func NewJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("can't create cookie jar: %w", err)
	}
	return jar, nil
}
