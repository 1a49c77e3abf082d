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
	"strconv"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// Client is a Go SDK for the recruitment portal API
type Client struct {
	baseURL    string
	adminKey   string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new portal client. adminKey may be empty when only
// the public routes are used.
func NewClient(baseURL, adminKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		adminKey: adminKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx answer from the portal
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// SubmitResult is the sheet endpoint answer as relayed by the portal
type SubmitResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// HealthStatus is the store-aware health report
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  struct {
		Status    string `json:"status"`
		Name      string `json:"name"`
		Connected bool   `json:"connected"`
	} `json:"database"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks"`
}

// ListOptions contains options for listing participants
type ListOptions struct {
	Status string
	Domain string
	Limit  int
	Offset int
}

// Register submits a registration and returns the stored participant
func (c *Client) Register(ctx context.Context, req models.RegistrationRequest) (*models.Participant, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result models.RegistrationResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, &APIError{
			StatusCode: resp.status,
			Code:       result.Code,
			Message:    result.Error,
			Fields:     result.Fields,
		}
	}

	return result.User, nil
}

// Tasks returns the dashboard for the participant registered under email
func (c *Client) Tasks(ctx context.Context, email string) (*models.Dashboard, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/task?email="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}

	if resp.status != http.StatusOK {
		var msg struct {
			Message string `json:"message"`
		}
		json.Unmarshal(resp.body, &msg)
		return nil, &APIError{StatusCode: resp.status, Message: msg.Message}
	}

	var dashboard models.Dashboard
	if err := json.Unmarshal(resp.body, &dashboard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &dashboard, nil
}

// Submit posts a task submission. Relayed upstream answers are returned as
// a *SubmitResult; when the status is not 2xx an *APIError is returned too.
func (c *Client) Submit(ctx context.Context, submission map[string]interface{}) (*SubmitResult, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/sheet", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		StatusCode:  resp.status,
		ContentType: resp.contentType,
		Body:        resp.body,
	}

	if resp.status < 200 || resp.status >= 300 {
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.body, &msg) != nil || msg.Error == "" {
			msg.Error = string(resp.body)
		}
		return result, &APIError{StatusCode: resp.status, Message: msg.Error}
	}

	return result, nil
}

// Health returns the store-aware health report. A 503 is still decoded.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}

	var health HealthStatus
	if err := json.Unmarshal(resp.body, &health); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.status != http.StatusOK {
		return &health, &APIError{StatusCode: resp.status, Message: health.Status}
	}

	return &health, nil
}

// Stats returns registration totals
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.admin(ctx, "/api/admin/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Participants lists participants matching opts
func (c *Client) Participants(ctx context.Context, opts ListOptions) ([]*models.Participant, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Domain != "" {
		q.Set("domain", opts.Domain)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/admin/participants"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Participants []*models.Participant `json:"participants"`
	}
	if err := c.admin(ctx, path, &data); err != nil {
		return nil, err
	}
	return data.Participants, nil
}

// ListTasks returns the whole task catalog
func (c *Client) ListTasks(ctx context.Context) ([]*models.Task, error) {
	var data struct {
		Tasks []*models.Task `json:"tasks"`
	}
	if err := c.admin(ctx, "/api/admin/tasks", &data); err != nil {
		return nil, err
	}
	return data.Tasks, nil
}

// admin performs an authenticated GET and unwraps the success envelope into out
func (c *Client) admin(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp.body, &result); err != nil {
		// 404 from an unmounted admin router is plain text
		return &APIError{StatusCode: resp.status, Message: string(resp.body)}
	}

	if !result.Success {
		apiErr := &APIError{StatusCode: resp.status}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

// doRequest performs an HTTP request. Status codes are left to the caller.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.adminKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        respBody,
	}, nil
}
