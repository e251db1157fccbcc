package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reqtester/pkg/tester"
)

// Client implements tester.Backend against a remote test-runner server.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{}}
}

// NewWithTimeout constructs a client for the given base URL with a request timeout.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SystemPrompt fetches the backend's system prompt.
func (c *Client) SystemPrompt(ctx context.Context) (string, error) {
	var res tester.SystemPromptResponse
	if err := c.getJSON(ctx, "/system-prompt", &res); err != nil {
		return "", err
	}
	return res.SystemPrompt, nil
}

// DefaultModel fetches the backend's default model name.
func (c *Client) DefaultModel(ctx context.Context) (string, error) {
	var res tester.DefaultModelResponse
	if err := c.getJSON(ctx, "/default-model", &res); err != nil {
		return "", err
	}
	return res.DefaultModel, nil
}

// Config fetches the backend's effective configuration.
func (c *Client) Config(ctx context.Context) (tester.ServerConfig, error) {
	var res tester.ServerConfig
	if err := c.getJSON(ctx, "/config", &res); err != nil {
		return tester.ServerConfig{}, err
	}
	return res, nil
}

// Health fetches the backend health report.
func (c *Client) Health(ctx context.Context) (tester.Health, error) {
	var res tester.Health
	if err := c.getJSON(ctx, "/health", &res); err != nil {
		return tester.Health{}, err
	}
	return res, nil
}

// Submit starts a test session over HTTP.
func (c *Client) Submit(ctx context.Context, req tester.TestRequest) (tester.SubmitResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return tester.SubmitResponse{}, err
	}
	body, status, err := c.do(ctx, http.MethodPost, "/test", payload)
	if err != nil {
		return tester.SubmitResponse{}, err
	}
	if !isSuccess(status) {
		return tester.SubmitResponse{}, decodeHTTPError(status, body)
	}
	var res tester.SubmitResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return tester.SubmitResponse{}, fmt.Errorf("decode submit response: %w", err)
	}
	if res.SessionID == "" {
		if res.Message != "" {
			return tester.SubmitResponse{}, fmt.Errorf("submit rejected: %s", res.Message)
		}
		return tester.SubmitResponse{}, fmt.Errorf("submit response missing session_id")
	}
	return res, nil
}

// Results fetches the full current result set for a session.
func (c *Client) Results(ctx context.Context, sessionID string) (tester.ResultsResponse, error) {
	var res tester.ResultsResponse
	if err := c.getJSON(ctx, "/results/"+url.PathEscape(sessionID), &res); err != nil {
		return tester.ResultsResponse{}, err
	}
	return res, nil
}

// Sessions lists the sessions known to the backend.
func (c *Client) Sessions(ctx context.Context) ([]tester.SessionSummary, error) {
	var res tester.SessionsResponse
	if err := c.getJSON(ctx, "/sessions", &res); err != nil {
		return nil, err
	}
	return res.Sessions, nil
}

// Delete removes a session on the backend.
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	body, status, err := c.do(ctx, http.MethodDelete, "/delete/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return decodeHTTPError(status, body)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return decodeHTTPError(status, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// HTTPError reports a non-2xx response from the backend.
type HTTPError struct {
	Status  int
	Message string
}

// Error renders the status and server-provided message.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d", e.Status)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func decodeHTTPError(status int, body []byte) error {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		if resp.Detail != "" {
			return &HTTPError{Status: status, Message: resp.Detail}
		}
		if resp.Error != "" {
			return &HTTPError{Status: status, Message: resp.Error}
		}
	}
	return &HTTPError{Status: status}
}
