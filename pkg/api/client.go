// Package api is a client for the tickr time-entry backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized matches responses with status 401.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status int
	Body   string
	Detail string
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: string(body)}
	msg := struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}{}
	if json.Unmarshal(body, &msg) == nil {
		e.Detail = msg.Detail
		if e.Detail == "" {
			e.Detail = msg.Message
		}
	}
	if e.Detail == "" {
		e.Detail = fieldError(body)
	}
	return e
}

// fieldError picks the first validation message from a body shaped like
// {"email": ["..."]}.
func fieldError(body []byte) string {
	fields := map[string][]string{}
	if json.Unmarshal(body, &fields) != nil {
		return ""
	}
	for _, key := range []string{"email", "username", "password", "name"} {
		if msgs := fields[key]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Unreachable reports whether err came from failing to talk to the backend
// at all, as opposed to the backend rejecting the request.
func Unreachable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *responseCache

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithToken sets the bearer token sent with authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithCacheTTL sets how long project and user lookups are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = newResponseCache(ttl)
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = newResponseCache(defaultCacheTTL)
	}
	return c
}

// SetToken swaps the bearer token and drops cached responses.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.cache.Purge()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// URL joins endpoint onto the base URL without doubling slashes. Absolute
// URLs are returned unchanged.
func (c *Client) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, in any, auth bool) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("api: encode %s: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read %s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(resp.StatusCode, data)
	}
	return data, nil
}

// call performs an authenticated request and decodes the response into out
// when both are non-empty.
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any) error {
	data, err := c.do(ctx, method, endpoint, in, true)
	if err != nil {
		return err
	}
	return decode(endpoint, data, out)
}

// cached is call for GET endpoints served through the response cache.
func (c *Client) cached(ctx context.Context, endpoint string, out any) error {
	if data, ok := c.cache.Get(endpoint); ok {
		return decode(endpoint, data, out)
	}
	data, err := c.do(ctx, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return err
	}
	if err := decode(endpoint, data, out); err != nil {
		return err
	}
	c.cache.Add(endpoint, data)
	return nil
}

func decode(endpoint string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", endpoint, err)
	}
	return nil
}

// Login exchanges credentials for tokens. The client keeps the access token.
func (c *Client) Login(ctx context.Context, email, password string) (*Tokens, error) {
	in := map[string]string{"email": email, "password": password}
	data, err := c.do(ctx, http.MethodPost, "login/", in, false)
	if err != nil {
		return nil, err
	}
	tokens := &Tokens{}
	if err := decode("login/", data, tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, errors.New("api: login response missing access token")
	}
	c.SetToken(tokens.AccessToken)
	return tokens, nil
}

// User returns the authenticated account.
func (c *Client) User(ctx context.Context) (*User, error) {
	u := &User{}
	if err := c.cached(ctx, "user/", u); err != nil {
		return nil, err
	}
	return u, nil
}

// Entries lists all entries of the authenticated user, running ones included.
func (c *Client) Entries(ctx context.Context) ([]Entry, error) {
	entries := make([]Entry, 0)
	if err := c.call(ctx, http.MethodGet, "entries/", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ActiveEntry returns the running entry, or nil when none is running.
func (c *Client) ActiveEntry(ctx context.Context) (*Entry, error) {
	var e *Entry
	err := c.call(ctx, http.MethodGet, "entries/active/", nil, &e)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if !e.Active() {
		return nil, nil
	}
	return e, nil
}

// StartEntry starts a new running entry on the server.
func (c *Client) StartEntry(ctx context.Context, description string, projectID *int64) (*Entry, error) {
	in := struct {
		Description string `json:"description"`
		ProjectID   *int64 `json:"project_id"`
	}{Description: description, ProjectID: projectID}
	e := &Entry{}
	if err := c.call(ctx, http.MethodPost, "entries/start/", in, e); err != nil {
		return nil, err
	}
	return e, nil
}

// StopEntry stops the running entry. The returned entry is nil when the server
// sends no body.
func (c *Client) StopEntry(ctx context.Context, projectID *int64) (*Entry, error) {
	in := struct {
		ProjectID *int64 `json:"project_id"`
	}{ProjectID: projectID}
	var e *Entry
	if err := c.call(ctx, http.MethodPost, "entries/stop/", in, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEntry changes the description of entry id.
func (c *Client) UpdateEntry(ctx context.Context, id int64, description string) (*Entry, error) {
	in := struct {
		Description string `json:"description"`
	}{Description: description}
	e := &Entry{}
	if err := c.call(ctx, http.MethodPatch, entryPath(id), in, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEntry removes entry id.
func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, entryPath(id), nil, nil)
}

// Projects lists projects visible to the user.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	projects := make([]Project, 0)
	if err := c.cached(ctx, "projects/", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project and invalidates the cached project list.
func (c *Client) CreateProject(ctx context.Context, p NewProject) (*Project, error) {
	out := &Project{}
	if err := c.call(ctx, http.MethodPost, "projects/", p, out); err != nil {
		return nil, err
	}
	c.cache.Remove("projects/")
	return out, nil
}

// UpdateProject applies the set fields of p to project id.
func (c *Client) UpdateProject(ctx context.Context, id int64, p ProjectUpdate) (*Project, error) {
	out := &Project{}
	if err := c.call(ctx, http.MethodPatch, projectPath(id), p, out); err != nil {
		return nil, err
	}
	c.cache.Remove("projects/")
	return out, nil
}

// DeleteProject removes project id.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	if err := c.call(ctx, http.MethodDelete, projectPath(id), nil, nil); err != nil {
		return err
	}
	c.cache.Remove("projects/")
	return nil
}

// Signup registers an account. It does not log in.
func (c *Client) Signup(ctx context.Context, u NewUser) (*User, error) {
	data, err := c.do(ctx, http.MethodPost, "signup/", u, false)
	if err != nil {
		return nil, err
	}
	out := struct {
		Data *User `json:"data"`
		User
	}{}
	if err := decode("signup/", data, &out); err != nil {
		return nil, err
	}
	if out.Data != nil {
		return out.Data, nil
	}
	return &out.User, nil
}
