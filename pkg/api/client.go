package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/notekeeper/pkg/core"
)

const (
	// DefaultBaseURL is the API origin used when none is configured.
	DefaultBaseURL = "http://localhost:5032"

	// DefaultTimeout bounds each request. Exceeding it fails the request; nothing is retried.
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed response body is kept in HTTPError.
	maxErrorBody = 4 << 10
)

// Config holds the configuration for the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Headers are added to every request on top of the JSON defaults.
	Headers http.Header

	// HTTPClient is copied; its Timeout is overwritten by Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
}

// Client talks to the notes backend.
type Client struct {
	baseURL *url.URL
	headers http.Header
	http    *http.Client
	logger  *slog.Logger

	mu       sync.RWMutex
	request  []RequestInterceptor
	response []ResponseInterceptor
}

// NewClient validates cfg and returns a ready Client.
func NewClient(cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		hc = &copied
	}
	hc.Timeout = timeout

	headers := http.Header{
		"Content-Type": []string{"application/json"},
		"Accept":       []string{"application/json"},
	}
	for k, v := range cfg.Headers {
		headers[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:  base,
		headers:  headers,
		http:     hc,
		logger:   logger,
		request:  append([]RequestInterceptor(nil), cfg.RequestInterceptors...),
		response: append([]ResponseInterceptor(nil), cfg.ResponseInterceptors...),
	}, nil
}

// UseRequest appends request interceptors. They run in registration order.
func (c *Client) UseRequest(interceptors ...RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = append(c.request, interceptors...)
}

// UseResponse appends response interceptors. They run in registration order.
func (c *Client) UseResponse(interceptors ...ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.response = append(c.response, interceptors...)
}

// BaseURL returns the configured origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// --- Operations ---

// ListNotes fetches one page of notes.
func (c *Client) ListNotes(ctx context.Context, params core.ListParams) (core.NotesPage, error) {
	q := url.Values{}
	if params.LastNoteCreatedAt != "" {
		q.Set("lastNoteCreatedAt", params.LastNoteCreatedAt)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(params.PageSize))
	}

	var page core.NotesPage
	if err := c.do(ctx, http.MethodGet, "/notes", q, nil, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.LoginResult, error) {
	var res core.LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds, &res); err != nil {
		return core.LoginResult{}, err
	}
	return res, nil
}

// CreateNote posts a new note and returns the backend's copy.
func (c *Client) CreateNote(ctx context.Context, note core.Note) (core.Note, error) {
	var created core.Note
	if err := c.do(ctx, http.MethodPost, "/notes", nil, note, &created); err != nil {
		return core.Note{}, err
	}
	return created, nil
}

// UpdateNote replaces the note identified by note.ID.
func (c *Client) UpdateNote(ctx context.Context, note core.Note) (core.Note, error) {
	if note.ID == "" {
		return core.Note{}, core.ErrEmptyID
	}
	var updated core.Note
	if err := c.do(ctx, http.MethodPut, notePath(note.ID), nil, note, &updated); err != nil {
		return core.Note{}, err
	}
	return updated, nil
}

// DeleteNote removes the note identified by id.
func (c *Client) DeleteNote(ctx context.Context, id core.NoteID) error {
	if id == "" {
		return core.ErrEmptyID
	}
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil, nil)
}

func notePath(id core.NoteID) string {
	return "/notes/" + url.PathEscape(string(id))
}

// --- Transport ---

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	return req, nil
}

// do sends one request through the interceptor chains and decodes the JSON
// response into out when out is non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}

	c.mu.RLock()
	request := c.request
	response := c.response
	c.mu.RUnlock()

	for _, intercept := range request {
		if err := intercept(req); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "request", requestLabel(req), "error", err)
		return c.intercept(response, req, nil, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		"request", requestLabel(req),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		herr := &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       string(bytes.TrimSpace(data)),
		}
		return c.intercept(response, req, resp, herr)
	}

	if err := c.intercept(response, req, resp, nil); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) intercept(chain []ResponseInterceptor, req *http.Request, resp *http.Response, err error) error {
	for _, intercept := range chain {
		err = intercept(req, resp, err)
	}
	return err
}

var _ core.NotesAPI = (*Client)(nil)
