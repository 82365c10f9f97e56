package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Agent endpoints
const (
	statusPath     = "/api/status"
	connectPath    = "/api/connect-rabbitmq"
	disconnectPath = "/api/disconnect-rabbitmq"
)

// ConnectionStatus is the part of /api/status the dashboard uses
type ConnectionStatus struct {
	Connected bool
}

// ActionResult is the {success, message} body of the action endpoints
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AgentAPI is what the controller needs from the agent
type AgentAPI interface {
	Status(ctx context.Context) (ConnectionStatus, error)
	Connect(ctx context.Context) (ActionResult, error)
	Disconnect(ctx context.Context) (ActionResult, error)
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStatusError reports a non-2xx response that carried no usable body
type HTTPStatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// ErrMissingField is returned when /api/status lacks rabbitmq_connected
var ErrMissingField = errors.New("status response missing rabbitmq_connected")

// APIClient talks to the agent over HTTP
type APIClient struct {
	baseURL string
	http    Doer
}

// NewAPIClient creates a client for the agent at baseURL. A nil doer uses an
// http.Client without a timeout; requests end with their context.
func NewAPIClient(baseURL string, doer Doer) (*APIClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid agent URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid agent URL %q", baseURL)
	}
	if doer == nil {
		doer = &http.Client{}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: doer}, nil
}

// Status fetches the broker connection state
func (c *APIClient) Status(ctx context.Context) (ConnectionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath, nil)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("GET %s: %w", statusPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return ConnectionStatus{}, &HTTPStatusError{Method: http.MethodGet, Path: statusPath, StatusCode: resp.StatusCode}
	}

	var body struct {
		RabbitMQConnected *bool `json:"rabbitmq_connected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ConnectionStatus{}, fmt.Errorf("decode %s: %w", statusPath, err)
	}
	if body.RabbitMQConnected == nil {
		return ConnectionStatus{}, ErrMissingField
	}
	return ConnectionStatus{Connected: *body.RabbitMQConnected}, nil
}

// Connect asks the agent to connect to the broker
func (c *APIClient) Connect(ctx context.Context) (ActionResult, error) {
	return c.post(ctx, connectPath)
}

// Disconnect asks the agent to drop the broker connection
func (c *APIClient) Disconnect(ctx context.Context) (ActionResult, error) {
	return c.post(ctx, disconnectPath)
}

// post sends an empty JSON object and decodes {success, message}. The body is
// decoded whatever the status code, since the agent reports failures in it.
func (c *APIClient) post(ctx context.Context, path string) (ActionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader("{}"))
	if err != nil {
		return ActionResult{}, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ActionResult{}, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	var result ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return ActionResult{}, &HTTPStatusError{Method: http.MethodPost, Path: path, StatusCode: resp.StatusCode}
		}
		return ActionResult{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return result, nil
}
