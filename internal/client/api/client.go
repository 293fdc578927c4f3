// Package api is a typed client for the task manager HTTP API.
// Every response envelope is decoded here and only the payload leaves the package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nkiryanov/taskmanager/internal/apperrors"
	"github.com/nkiryanov/taskmanager/internal/envelope"
	"github.com/nkiryanov/taskmanager/internal/logger"
)

const defaultTimeout = 10 * time.Second

const (
	MessageUnauthenticated = "Authentication required"
	MessageForbidden       = "You do not have permission to perform this action"
	MessageNotFound        = "Resource not found"
	MessageServer          = "Server error, please try again later"
)

// Error is a non-2xx answer of the API
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string

	// Sentinel from apperrors the status corresponds to, if any
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status of an *Error or 0
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type authFlowKey struct{}

// WithAuthFlow marks requests that are part of the auth flow (login, refresh, logout).
// Their 401 is final and never starts a refresh.
func WithAuthFlow(ctx context.Context) context.Context {
	return context.WithValue(ctx, authFlowKey{}, true)
}

func IsAuthFlow(ctx context.Context) bool {
	v, _ := ctx.Value(authFlowKey{}).(bool)
	return v
}

type Client struct {
	BaseURL *url.URL

	client *http.Client
	logger logger.Logger
}

// New returns client for API at baseURL. httpClient carries the cookie jar and
// the request pipeline, nil means http.DefaultClient.
func New(baseURL string, httpClient *http.Client, l logger.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Client{BaseURL: u, client: httpClient, logger: l}, nil
}

// Call sends body (if not nil) as JSON and returns the payload of the response envelope
func Call[T any](ctx context.Context, c *Client, method string, path string, body any) (T, error) {
	var zero T

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return zero, c.failure(ctx, resp)
	}

	env, err := envelope.Decode[T](resp.Body)
	if err != nil {
		c.logger.Warn("Failed to decode response", "path", path, "error", err)
		return zero, err
	}

	return env.Payload()
}

// Exec is Call for responses that carry a message only
func (c *Client) Exec(ctx context.Context, method string, path string, body any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(ctx, resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) send(ctx context.Context, method string, path string, body any) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		// bytes.Reader lets the pipeline replay the body on retry
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL.String()+path, reader)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNetwork, err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// failure turns a non-2xx response into *Error.
// Auth flow failures keep the server message, they are reported to the user as is.
func (c *Client) failure(ctx context.Context, resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	env, err := envelope.Decode[envelope.Empty](resp.Body)
	if err == nil {
		apiErr.Code = env.Error
		apiErr.Message = env.Message
		apiErr.Fields = env.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.Err = apperrors.ErrUnauthenticated
		if !IsAuthFlow(ctx) {
			apiErr.Message = MessageUnauthenticated
		}
	case resp.StatusCode == http.StatusForbidden:
		apiErr.Err = apperrors.ErrForbidden
		apiErr.Message = MessageForbidden
	case resp.StatusCode == http.StatusNotFound:
		apiErr.Message = MessageNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		apiErr.Message = MessageServer
	case apiErr.Code == envelope.CodeValidation:
		apiErr.Err = apperrors.ErrValidation
	}

	c.logger.Debug("API request failed", "status", apiErr.Status, "code", apiErr.Code, "message", apiErr.Message)
	return apiErr
}

// cancelOnClose releases the request timeout once the body is consumed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
