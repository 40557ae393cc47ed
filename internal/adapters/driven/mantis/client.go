// Package mantis implements the Mantis backend protocol: asynchronous
// space creation over a task queue, early space-id discovery, and the
// websocket synthesis log stream.
package mantis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default timeout for a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the delay between status poll attempts.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultReconnectDelay is the pause before a log stream reconnect.
	DefaultReconnectDelay = 5 * time.Second
)

// Ensure Client implements the driven ports.
var (
	_ driven.SpaceCreator    = (*Client)(nil)
	_ driven.LogStreamOpener = (*Client)(nil)
)

// Client talks to a Mantis backend. Space creation is asynchronous on the
// backend: the submission returns a task id immediately and the client
// polls two independent endpoints, one gating completion and one that
// discovers the assigned space id early for live log streaming.
type Client struct {
	baseURL        string
	wsBaseURL      string
	httpClient     *http.Client
	credentials    driven.CredentialSource
	pollInterval   time.Duration
	maxAttempts    int
	reconnectDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithPollInterval sets the delay between poll attempts.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithMaxAttempts bounds the number of task status poll attempts.
// Zero means unbounded; cancellation then rests on the caller's context.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxAttempts = n
		}
	}
}

// WithReconnectDelay sets the pause before log stream reconnects.
func WithReconnectDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.reconnectDelay = delay
		}
	}
}

// NewClient creates a client for the backend at baseURL. wsBaseURL is the
// websocket endpoint base (ws:// or wss:// counterpart of baseURL).
// credentials may be nil, in which case submissions carry no cookie.
func NewClient(baseURL, wsBaseURL string, credentials driven.CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		wsBaseURL:      strings.TrimSuffix(wsBaseURL, "/"),
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		credentials:    credentials,
		pollInterval:   DefaultPollInterval,
		reconnectDelay: DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// createSpaceRequest is the submission payload.
type createSpaceRequest struct {
	Data      []domain.Record     `json:"data"`
	Cookie    string              `json:"cookie"`
	DataTypes domain.FieldTypeMap `json:"data_types"`
	Name      *string             `json:"name"`
	Job       string              `json:"job"`
}

// createSpaceResponse is the immediate submission response.
type createSpaceResponse struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error,omitempty"`
}

// taskStatusResponse is one status poll response. Result is a SpaceResult
// object on SUCCESS and a plain failure string on FAILURE.
type taskStatusResponse struct {
	State      string          `json:"state"`
	Result     json.RawMessage `json:"result,omitempty"`
	Stacktrace string          `json:"stacktrace,omitempty"`
}

// spaceIDResponse is one space-id discovery poll response. Absent fields
// mean the backend has not assigned an id yet.
type spaceIDResponse struct {
	SpaceID string `json:"space_id,omitempty"`
	LayerID string `json:"layer_id,omitempty"`
}

// CreateSpace submits batch and blocks until the backend task reaches a
// terminal state. The space-id discovery poll runs concurrently and calls
// onSpaceID (at most once) as soon as the backend assigns an identifier;
// discovery never gates completion and its transient errors are retried
// silently. Any terminal error ends the job; nothing is retried across
// calls.
func (c *Client) CreateSpace(ctx context.Context, batch *domain.Batch, name string, onSpaceID func(spaceID string)) (*domain.SpaceResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	cookie := ""
	if c.credentials != nil {
		header, err := c.credentials.CookieHeader(ctx)
		if err != nil {
			return nil, err
		}
		cookie = header
	}

	job := uuid.NewString()

	var namePtr *string
	if name != "" {
		namePtr = &name
	}

	taskID, err := c.submit(ctx, &createSpaceRequest{
		Data:      batch.Records,
		Cookie:    cookie,
		DataTypes: batch.FieldTypes,
		Name:      namePtr,
		Job:       job,
	})
	if err != nil {
		return nil, err
	}

	// Discovery polling stops as soon as the task path resolves.
	discoveryCtx, stopDiscovery := context.WithCancel(ctx)
	defer stopDiscovery()
	if onSpaceID != nil {
		go c.pollSpaceID(discoveryCtx, job, onSpaceID)
	}

	return c.pollTask(ctx, taskID)
}

// submit posts the creation request and returns the backend task id.
func (c *Client) submit(ctx context.Context, reqBody *createSpaceRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/api/create-space"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit space: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded createSpaceResponse
	if err := json.Unmarshal(body, &decoded); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: decoded.Error, URL: url}
	}
	if decoded.TaskID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoTaskID, decoded.Error)
	}
	return decoded.TaskID, nil
}

// pollTask polls the task status endpoint until a terminal state. A
// SUCCESS response carrying a stacktrace is a failure: the worker caught
// its own exception and reported it through the result channel.
func (c *Client) pollTask(ctx context.Context, taskID string) (*domain.SpaceResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	url := fmt.Sprintf("%s/api/space-task-status/%s", c.baseURL, taskID)

	for attempt := 0; c.maxAttempts == 0 || attempt < c.maxAttempts; attempt++ {
		var status taskStatusResponse
		if err := c.getJSON(ctx, url, &status); err != nil {
			return nil, err
		}

		switch status.State {
		case "SUCCESS":
			if status.Stacktrace != "" {
				return nil, &TaskError{TaskID: taskID, State: status.State, Detail: status.Stacktrace}
			}
			var result domain.SpaceResult
			if err := json.Unmarshal(status.Result, &result); err != nil {
				return nil, fmt.Errorf("decode task result: %w", err)
			}
			return &result, nil

		case "FAILURE":
			return nil, &TaskError{TaskID: taskID, State: status.State, Detail: failureDetail(status.Result)}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, fmt.Errorf("%w: task %s after %d attempts", ErrPollBudgetExhausted, taskID, c.maxAttempts)
}

// pollSpaceID polls the space-id discovery endpoint until the backend
// assigns an id. Transient errors are swallowed; only ctx ends the loop.
func (c *Client) pollSpaceID(ctx context.Context, job string, onSpaceID func(spaceID string)) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	url := fmt.Sprintf("%s/api/get-space-id/%s", c.baseURL, job)

	for {
		var assigned spaceIDResponse
		if err := c.getJSON(ctx, url, &assigned); err == nil && assigned.SpaceID != "" {
			onSpaceID(assigned.SpaceID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// getJSON performs a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, URL: url}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode poll response: %w", err)
	}
	return nil
}

// failureDetail extracts the server-provided failure text from a FAILURE
// result, which is usually a plain JSON string.
func failureDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown failure"
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
