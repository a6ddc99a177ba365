package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"task-dashboard/logging"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// Client is the facade over the remote task/group/project REST API. It owns no
// state; every call is a single request/response pair routed through the
// circuit breaker for its resource.
type Client struct {
	baseURL  string
	http     *http.Client
	tasks    *gobreaker.CircuitBreaker
	groups   *gobreaker.CircuitBreaker
	projects *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, httpClient *http.Client, tasksCB, groupsCB, projectsCB *gobreaker.CircuitBreaker) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		tasks:    tasksCB,
		groups:   groupsCB,
		projects: projectsCB,
	}
}

// do runs one JSON round trip through the given breaker. A nil out skips
// response decoding; a nil body sends no payload.
func (c *Client) do(ctx context.Context, cb *gobreaker.CircuitBreaker, method, path string, body interface{}, out interface{}) error {
	_, err := cb.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %v", err)
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.New().String())

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
			logging.Logger.Warnf("Event ID: BACKEND_CALL_FAILED, Description: %s %s failed: %v", method, path, apiErr)
			return nil, apiErr
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("failed to decode response: %v", err)
			}
		}
		return nil, nil
	})
	return err
}
