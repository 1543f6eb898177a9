// Package client talks to a running todoboard server over its JSON API.
package client

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

	"todoboard/internal/adapters/exports"
	"todoboard/internal/todo"
)

// DefaultBaseURL is used when no server URL is configured.
const DefaultBaseURL = "http://localhost:3000"

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response. Message carries the server's "error" field
// when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client is a thin JSON API client.
type Client struct {
	base *url.URL
	http *http.Client
}

// New parses baseURL and returns a Client for it.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Board fetches all todos grouped by status.
func (c *Client) Board(ctx context.Context) (todo.Board, error) {
	var out struct {
		Todos todo.Board `json:"todos"`
	}
	err := c.do(ctx, http.MethodGet, "/todos", nil, &out)
	return out.Todos, err
}

// Add creates a todo.
func (c *Client) Add(ctx context.Context, title string) (todo.Todo, error) {
	var out todo.Todo
	err := c.do(ctx, http.MethodPost, "/todos", map[string]string{"title": title}, &out)
	return out, err
}

// Move changes the status of the todo with id.
func (c *Client) Move(ctx context.Context, id string, status todo.Status) (todo.Todo, error) {
	var out todo.Todo
	err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), map[string]string{"status": string(status)}, &out)
	return out, err
}

// Rename changes the title of the todo with id.
func (c *Client) Rename(ctx context.Context, id, title string) (todo.Todo, error) {
	var out todo.Todo
	err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), map[string]string{"title": title}, &out)
	return out, err
}

// Remove deletes the todo with id.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

// Export asks the server to snapshot the board in format.
func (c *Client) Export(ctx context.Context, format exports.Format) (exports.Artifact, error) {
	var out struct {
		Export exports.Artifact `json:"export"`
	}
	path := "/todos/exports?format=" + url.QueryEscape(string(format))
	err := c.do(ctx, http.MethodPost, path, nil, &out)
	return out.Export, err
}

// Exports lists stored exports.
func (c *Client) Exports(ctx context.Context) ([]exports.Artifact, error) {
	var out struct {
		Exports []exports.Artifact `json:"exports"`
	}
	err := c.do(ctx, http.MethodGet, "/todos/exports", nil, &out)
	return out.Exports, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}
