package sessionguard

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
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout is the per-request timeout of the API client.
const DefaultTimeout = 20 * time.Second

// SessionStore is where the client keeps the session. It is satisfied by
// *store.Store.
type SessionStore interface {
	TokenStore
	Save(ctx context.Context, token string, roles []string) error
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token string   `json:"token"`
	Roles []string `json:"roles"`
}

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirmPassword"`
	Roles           []string `json:"roles"`
}

// RegisterResult is the body of a successful registration.
type RegisterResult struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Envelope is the wrapper the API puts around every non-auth response.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var (
	ErrBaseURLInvalid   = errors.New("base URL must be an absolute http or https URL")
	ErrInterceptorNil   = errors.New("interceptor cannot be nil")
	ErrTransportNil     = errors.New("transport cannot be nil")
	ErrTimeoutNegative  = errors.New("timeout cannot be negative")
	ErrSessionStoreNil  = errors.New("session store cannot be nil")
	ErrCredentialsEmpty = errors.New("username and password are required")
)

// Client talks to the Biblioteca API. Resource calls go through a Pipeline
// carrying the session interceptor. Auth calls (login, registration) use a
// plain client: they neither send the token nor reset the session on 401.
type Client struct {
	baseURL  *url.URL
	tokens   SessionStore
	api      *http.Client
	auth     *http.Client
	pipeline *Pipeline
	logger   Logger
	metrics  Metrics

	// construction only
	timeout      time.Duration
	transport    http.RoundTripper
	interceptors []*Interceptor
}

// ClientOption configures the Client.
type ClientOption func(*Client) error

// WithTimeout sets the per-request timeout. Zero disables it.
//
// Default: 20s
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < 0 {
			return ErrTimeoutNegative
		}
		c.timeout = d
		return nil
	}
}

// WithTransport sets the base transport shared by resource and auth calls.
//
// Default: a pooled go-cleanhttp transport
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) error {
		if rt == nil {
			return ErrTransportNil
		}
		c.transport = rt
		return nil
	}
}

// WithInterceptor registers i on the resource pipeline instead of the
// default interceptor, which only clears the session on 401. Use it to
// attach a Navigator, metrics or tracing.
func WithInterceptor(i *Interceptor) ClientOption {
	return func(c *Client) error {
		if i == nil {
			return ErrInterceptorNil
		}
		c.interceptors = append(c.interceptors, i)
		return nil
	}
}

// WithClientLogger sets an optional logger for the Client.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			return ErrLoggerNil
		}
		c.logger = logger
		return nil
	}
}

// WithClientMetrics sets the metrics sink for request durations and the
// active-session gauge.
//
// Default: NoopMetrics
func WithClientMetrics(m Metrics) ClientOption {
	return func(c *Client) error {
		if m == nil {
			return ErrMetricsNil
		}
		c.metrics = m
		return nil
	}
}

// NewClient creates a Client for the API rooted at baseURL, for example
// "http://localhost:8080/api/v1".
func NewClient(baseURL string, tokens SessionStore, opts ...ClientOption) (*Client, error) {
	if tokens == nil {
		return nil, ErrSessionStoreNil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseURLInvalid, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURLInvalid, baseURL)
	}

	c := &Client{
		baseURL: u,
		tokens:  tokens,
		metrics: &NoopMetrics{},
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.transport == nil {
		c.transport = cleanhttp.DefaultPooledTransport()
	}

	if len(c.interceptors) == 0 {
		interceptorOpts := []Option{WithTokenStore(tokens)}
		if c.logger != nil {
			interceptorOpts = append(interceptorOpts, WithLogger(c.logger))
		}
		i, err := NewInterceptor(interceptorOpts...)
		if err != nil {
			return nil, err
		}
		c.interceptors = append(c.interceptors, i)
	}

	c.pipeline = NewPipeline(c.transport)
	for _, i := range c.interceptors {
		i.Register(c.pipeline)
	}
	c.interceptors = nil

	c.api = &http.Client{Transport: c.pipeline, Timeout: c.timeout}
	c.auth = &http.Client{Transport: c.transport, Timeout: c.timeout}

	return c, nil
}

// Pipeline returns the resource pipeline so callers can register more hooks.
func (c *Client) Pipeline() *Pipeline {
	return c.pipeline
}

// Login exchanges credentials for a token and stores the token and roles.
// A missing roles list is stored as empty.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsEmpty
	}

	var result LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.postAuth(ctx, "login", body, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrUnexpectedResponse)
	}
	if result.Roles == nil {
		result.Roles = []string{}
	}

	if err := c.tokens.Save(ctx, result.Token, result.Roles); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	c.metrics.SetGauge(MetricSessionActive, 1, nil)

	if c.logger != nil {
		c.logger.Info("Logged in", "username", username, "roles", result.Roles)
	}
	return &result, nil
}

// Register creates a user account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if req.Roles == nil {
		req.Roles = []string{}
	}

	var result RegisterResult
	if err := c.postAuth(ctx, "register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout clears the stored session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.metrics.SetGauge(MetricSessionActive, 0, nil)
	return nil
}

// Get is Do with http.MethodGet and no body.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Do sends a resource request relative to the base URL through the pipeline.
// in, when non-nil, is sent as JSON. The "data" field of the response
// envelope is decoded into out, when non-nil. Responses with status >= 400
// return a *StatusError; a 401 has already reset the session by then.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	u, err := c.resolve(path)
	if err != nil {
		return err
	}

	req, err := newJSONRequest(ctx, method, u.String(), in)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveHistogram(MetricRequestDuration, time.Since(start).Seconds(), map[string]string{
		"method": method,
		"code":   strconv.Itoa(resp.StatusCode),
	})

	if resp.StatusCode >= http.StatusBadRequest {
		return readStatusError(req, resp)
	}

	data, err := Unwrap(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode data: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

// Unwrap reads an Envelope from r and returns its data field. An empty body
// or a null data field yield nil.
func Unwrap(r io.Reader) (json.RawMessage, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	if bytes.Equal(env.Data, []byte("null")) {
		return nil, nil
	}
	return env.Data, nil
}

func (c *Client) postAuth(ctx context.Context, endpoint string, in, out any) error {
	u := c.baseURL.JoinPath("auth", endpoint)

	req, err := newJSONRequest(ctx, http.MethodPost, u.String(), in)
	if err != nil {
		return err
	}

	resp, err := c.auth.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return readStatusError(req, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

// resolve joins a resource path, with optional query, onto the base URL.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("path %q must be relative to the API base URL", path)
	}

	u := c.baseURL.JoinPath(ref.Path)
	u.RawQuery = ref.RawQuery
	return u, nil
}

func newJSONRequest(ctx context.Context, method, rawURL string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
