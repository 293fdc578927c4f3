package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/taskmanager/internal/db"
	"github.com/nkiryanov/taskmanager/internal/handlers"
	"github.com/nkiryanov/taskmanager/internal/logger"
	"github.com/nkiryanov/taskmanager/internal/repository"
	"github.com/nkiryanov/taskmanager/internal/repository/mongodb"
	"github.com/nkiryanov/taskmanager/internal/repository/postgres"
	"github.com/nkiryanov/taskmanager/internal/service/auth"
	"github.com/nkiryanov/taskmanager/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/taskmanager/internal/service/task"
	"github.com/nkiryanov/taskmanager/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Releases database connections
	closeStorage func(ctx context.Context) error
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database the dsn points to
	storage, closeStorage, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey, TTL: c.TokenTTL})
	if err != nil {
		_ = closeStorage(ctx)
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	// Cookies are Secure in production whatever the flag says
	secureCookie := c.SecureCookie || c.Environment == logger.EnvProduction
	authService, err := auth.NewService(
		auth.Config{CookieName: c.CookieName, SecureCookie: secureCookie},
		tokenManager,
		storage.User(),
	)
	if err != nil {
		_ = closeStorage(ctx)
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage.User())
	taskService := task.NewService(storage.Task(), storage.User())

	router := handlers.NewRouter(authService, userService, taskService, l)

	return &ServerApp{
		ListenAddr:   c.ListenAddr,
		Handler:      router,
		Logger:       l,
		closeStorage: closeStorage,
	}, nil
}

func openStorage(ctx context.Context, dsn string) (repository.Storage, func(context.Context) error, error) {
	driver, err := db.DetectDriver(dsn)
	if err != nil {
		return nil, nil, err
	}

	switch driver {
	case db.DriverMongo:
		client, database, err := db.ConnectMongo(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return mongodb.NewStorage(database), client.Disconnect, nil

	default:
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		closePool := func(context.Context) error {
			pool.Close()
			return nil
		}
		return postgres.NewStorage(pool), closePool, nil
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		if err := s.closeStorage(timeoutCtx); err != nil {
			s.Logger.Warn("Database connections closed with error", "error", err)
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
