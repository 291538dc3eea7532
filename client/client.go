package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/logging"
)

const DefaultTimeout = 15 * time.Second

// Client is a thin wrapper over the REST API. Every call that needs
// authentication takes the bearer token explicitly.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for the API mounted at baseURL, e.g. http://host/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	out := &AuthResult{}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	out := &AuthResult{}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Verify checks token and returns the user it belongs to
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	return c.user(ctx, "/auth/verify", token)
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	return c.user(ctx, "/auth/me", token)
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, name, avatar *string) (*User, error) {
	out := struct {
		User User `json:"user"`
	}{}
	body := map[string]*string{"name": name, "avatar": avatar}
	for k, v := range body {
		if v == nil {
			delete(body, k)
		}
	}
	if err := c.do(ctx, http.MethodPut, "/users/profile", token, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListTasks(ctx context.Context, token string, opts ListOptions) (*TaskPage, error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("status", opts.Status)
	set("priority", opts.Priority)
	set("category", opts.Category)
	set("search", opts.Search)
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out := &TaskPage{}
	if err := c.do(ctx, http.MethodGet, path, token, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, token string, in TaskInput) (*Task, error) {
	return c.task(ctx, http.MethodPost, "/tasks", token, in)
}

func (c *Client) GetTask(ctx context.Context, token, id string) (*Task, error) {
	return c.task(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), token, nil)
}

func (c *Client) UpdateTask(ctx context.Context, token, id string, in TaskInput) (*Task, error) {
	return c.task(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), token, in)
}

func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) TaskStats(ctx context.Context, token string) (*TaskStats, error) {
	out := &TaskStats{}
	if err := c.do(ctx, http.MethodGet, "/tasks/stats/summary", token, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) user(ctx context.Context, path, token string) (*User, error) {
	out := struct {
		User User `json:"user"`
	}{}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) task(ctx context.Context, method, path, token string, in any) (*Task, error) {
	out := struct {
		Task Task `json:"task"`
	}{}
	if err := c.do(ctx, method, path, token, in, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// do performs the request and decodes the envelope data into out
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "failed to encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "method", method, "path", path, "error", err)
		return errors.Wrap(err, errors.CategoryOperation, "taskboard api unreachable")
	}
	defer res.Body.Close()

	env := envelope{}
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil && err != io.EOF {
		return &APIError{Status: res.StatusCode}
	}

	if res.StatusCode >= http.StatusBadRequest || !env.Success {
		return &APIError{
			Status:  res.StatusCode,
			Message: env.Message,
			Errors:  env.Errors,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to decode response")
		}
	}
	return nil
}
