// Package client talks to the taskflow HTTP API. *Client satisfies
// kanban.Mover, so a Reconciler can drive drag-and-drop against a live
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"taskflow/internal/kanban"
	"taskflow/internal/model"
)

const defaultTimeout = 15 * time.Second

// ErrNetwork wraps transport failures: the request never produced an HTTP
// response.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Kind)
	}
	return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Kind, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ kanban.Mover = (*Client)(nil)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// TaskDraft is the body of a create-task call.
type TaskDraft struct {
	ProjectID   uuid.UUID  `json:"projectId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Order       *int       `json:"order,omitempty"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// GetKanban fetches a project's board.
func (c *Client) GetKanban(ctx context.Context, projectID uuid.UUID) (kanban.Board, error) {
	var columns map[string][]model.Task
	if err := c.do(ctx, http.MethodGet, "/projects/"+projectID.String()+"/kanban", nil, &columns); err != nil {
		return kanban.Board{}, err
	}

	var tasks []model.Task
	for _, status := range model.Statuses {
		tasks = append(tasks, columns[string(status)]...)
	}
	return kanban.Project(projectID, tasks), nil
}

// SetTaskStatusAndOrder performs the authoritative status/order write.
func (c *Client) SetTaskStatusAndOrder(ctx context.Context, taskID uuid.UUID, status model.TaskStatus, order *int) (*model.Task, error) {
	body := struct {
		Status model.TaskStatus `json:"status"`
		Order  *int             `json:"order,omitempty"`
	}{Status: status, Order: order}

	var task model.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+taskID.String()+"/status", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Kind: env.Error, Message: env.Message}
		if apiErr.Kind == "" {
			apiErr.Kind = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
