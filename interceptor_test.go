package sessionguard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblioteca-app/sessionguard/core"
	"github.com/biblioteca-app/sessionguard/store"
)

// mockLogger is a mock implementation of Logger for testing.
type mockLogger struct {
	mu         sync.Mutex
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg  string
	args []any
}

func (m *mockLogger) Debug(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugCalls = append(m.debugCalls, logCall{msg, args})
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoCalls = append(m.infoCalls, logCall{msg, args})
}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnCalls = append(m.warnCalls, logCall{msg, args})
}

func (m *mockLogger) Error(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, logCall{msg, args})
}

// fakeNavigator records redirects. A redirect moves it to the target route.
type fakeNavigator struct {
	mu         sync.Mutex
	current    core.Location
	redirects  []core.Target
	err        error
	onRedirect func()
}

func (n *fakeNavigator) Current() core.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *fakeNavigator) Redirect(_ context.Context, t core.Target) error {
	if n.onRedirect != nil {
		n.onRedirect()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, t)
	if n.err != nil {
		return n.err
	}
	n.current = core.Location{Name: t.Name, Path: "/" + t.Name}
	return nil
}

func (n *fakeNavigator) redirectCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.redirects)
}

// recordingMetrics counts IncCounter calls per metric name.
type recordingMetrics struct {
	NoopMetrics
	mu       sync.Mutex
	counters map[string]int
	gauges   map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]int{}, gauges: map[string]float64{}}
}

func (m *recordingMetrics) IncCounter(name string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *recordingMetrics) SetGauge(name string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func newTokens(t *testing.T, token string) *store.Store {
	t.Helper()
	tokens, err := store.New(store.NewMemory())
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, tokens.Save(context.Background(), token, []string{"ROLE_USER"}))
	}
	return tokens
}

// unauthorizedExchange is the argument list a response hook sees for a 401.
func unauthorizedExchange(req *http.Request) (*http.Request, *http.Response, error) {
	resp := &http.Response{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized", Request: req}
	return req, resp, newStatusError(req, resp)
}

func TestNewInterceptor(t *testing.T) {
	tokens := newTokens(t, "")

	t.Run("defaults", func(t *testing.T) {
		i, err := NewInterceptor(WithTokenStore(tokens))
		require.NoError(t, err)
		assert.Equal(t, core.DefaultLoginRoute, i.loginRoute)
		assert.Equal(t, core.DefaultRedirectParam, i.redirectParam)
		assert.Equal(t, core.DefaultLandingPath, i.fallbackPath)
		assert.IsType(t, &NoopMetrics{}, i.metrics)
		assert.IsType(t, &NoopTracer{}, i.tracer)
		assert.Nil(t, i.navigator)
	})

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "missing token store", wantErr: ErrTokenStoreNil},
		{name: "nil token store", opts: []Option{WithTokenStore(nil)}, wantErr: ErrTokenStoreNil},
		{name: "nil navigator", opts: []Option{WithTokenStore(tokens), WithNavigator(nil)}, wantErr: ErrNavigatorNil},
		{name: "empty login route", opts: []Option{WithTokenStore(tokens), WithLoginRoute("")}, wantErr: ErrEmptyOption},
		{name: "empty redirect param", opts: []Option{WithTokenStore(tokens), WithRedirectParam("")}, wantErr: ErrEmptyOption},
		{name: "empty fallback path", opts: []Option{WithTokenStore(tokens), WithFallbackPath("")}, wantErr: ErrEmptyOption},
		{name: "nil logger", opts: []Option{WithTokenStore(tokens), WithLogger(nil)}, wantErr: ErrLoggerNil},
		{name: "nil metrics", opts: []Option{WithTokenStore(tokens), WithMetrics(nil)}, wantErr: ErrMetricsNil},
		{name: "nil tracer", opts: []Option{WithTokenStore(tokens), WithTracer(nil)}, wantErr: ErrTracerNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, err := NewInterceptor(tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, i)
		})
	}
}

func TestInterceptor_AttachCredentials(t *testing.T) {
	t.Run("stored token becomes bearer header", func(t *testing.T) {
		metrics := newRecordingMetrics()
		i, err := NewInterceptor(WithTokenStore(newTokens(t, "abc.def.ghi")), WithMetrics(metrics))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/livros", nil)
		require.NoError(t, i.AttachCredentials(req))

		assert.Equal(t, "Bearer abc.def.ghi", req.Header.Get("Authorization"))
		assert.Equal(t, 1, metrics.counters[MetricCredentialsAttached])
	})

	t.Run("no token leaves request untouched", func(t *testing.T) {
		i, err := NewInterceptor(WithTokenStore(newTokens(t, "")))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/livros", nil)
		req.Header.Set("X-Trace", "1")
		require.NoError(t, i.AttachCredentials(req))

		assert.Empty(t, req.Header.Values("Authorization"))
		assert.Equal(t, http.Header{"X-Trace": {"1"}}, req.Header)
	})

	t.Run("token is read per request", func(t *testing.T) {
		tokens := newTokens(t, "")
		i, err := NewInterceptor(WithTokenStore(tokens))
		require.NoError(t, err)

		require.NoError(t, tokens.Write(context.Background(), "novo"))
		req := httptest.NewRequest(http.MethodGet, "http://api.test/", nil)
		require.NoError(t, i.AttachCredentials(req))
		assert.Equal(t, "Bearer novo", req.Header.Get("Authorization"))
	})
}

func TestInterceptor_HandleResponse(t *testing.T) {
	tests := []struct {
		name          string
		current       core.Location
		status        int
		transportErr  error
		wantCleared   bool
		wantRedirects []core.Target
	}{
		{
			name:        "401 on protected page redirects with full path",
			current:     core.Location{Name: "autores", Path: "/autores", FullPath: "/autores?page=2"},
			status:      http.StatusUnauthorized,
			wantCleared: true,
			wantRedirects: []core.Target{
				{Name: "login", Query: url.Values{"redirect": {"/autores?page=2"}}},
			},
		},
		{
			name:        "401 before any navigation falls back to landing path",
			status:      http.StatusUnauthorized,
			wantCleared: true,
			wantRedirects: []core.Target{
				{Name: "login", Query: url.Values{"redirect": {"/livros"}}},
			},
		},
		{
			name:        "401 on login clears without redirect",
			current:     core.Location{Name: "login", Path: "/login", FullPath: "/login?redirect=%2Flivros"},
			status:      http.StatusUnauthorized,
			wantCleared: true,
		},
		{
			name:    "403 is ignored",
			current: core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"},
			status:  http.StatusForbidden,
		},
		{
			name:    "500 is ignored",
			current: core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"},
			status:  http.StatusInternalServerError,
		},
		{
			name:         "transport error is ignored",
			current:      core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"},
			transportErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := newTokens(t, "abc.def.ghi")
			nav := &fakeNavigator{current: tt.current}
			i, err := NewInterceptor(WithTokenStore(tokens), WithNavigator(nav))
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/livros", nil)
			var resp *http.Response
			var hookErr error
			switch {
			case tt.transportErr != nil:
				hookErr = tt.transportErr
			default:
				resp = &http.Response{StatusCode: tt.status, Request: req}
				hookErr = newStatusError(req, resp)
			}

			i.HandleResponse(req, resp, hookErr)

			ctx := context.Background()
			if tt.wantCleared {
				assert.Empty(t, tokens.Read(ctx))
				assert.Empty(t, tokens.Roles(ctx))
			} else {
				assert.Equal(t, "abc.def.ghi", tokens.Read(ctx))
				assert.Equal(t, []string{"ROLE_USER"}, tokens.Roles(ctx))
			}
			assert.Equal(t, tt.wantRedirects, nav.redirects)
		})
	}
}

func TestInterceptor_SecondUnauthorizedOnLoginDoesNotRedirect(t *testing.T) {
	nav := &fakeNavigator{current: core.Location{Name: "generos", Path: "/generos", FullPath: "/generos"}}
	metrics := newRecordingMetrics()
	i, err := NewInterceptor(WithTokenStore(newTokens(t, "abc.def.ghi")), WithNavigator(nav), WithMetrics(metrics))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/generos", nil)
	i.HandleResponse(unauthorizedExchange(req))
	i.HandleResponse(unauthorizedExchange(req))

	assert.Equal(t, 1, nav.redirectCount())
	assert.Equal(t, "login", nav.Current().Name)
	assert.Equal(t, 2, metrics.counters[MetricSessionResets])
	assert.Equal(t, 1, metrics.counters[MetricLoginRedirects])
	assert.Equal(t, float64(0), metrics.gauges[MetricSessionActive])
}

func TestInterceptor_ConcurrentUnauthorized(t *testing.T) {
	release := make(chan struct{})
	nav := &fakeNavigator{current: core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"}}
	nav.onRedirect = func() { <-release }

	i, err := NewInterceptor(WithTokenStore(newTokens(t, "abc.def.ghi")), WithNavigator(nav))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i.HandleUnauthorized(context.Background(), "http")
		}()
	}

	// Let every goroutine reach the reset before the first redirect finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, nav.redirectCount())
}

func TestInterceptor_NestedUnauthorizedDuringRedirect(t *testing.T) {
	nav := &fakeNavigator{current: core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"}}
	i, err := NewInterceptor(WithTokenStore(newTokens(t, "abc.def.ghi")), WithNavigator(nav))
	require.NoError(t, err)

	nested := 0
	nav.onRedirect = func() {
		nested++
		// A page loading data on navigation gets a 401 of its own.
		i.HandleUnauthorized(context.Background(), "http")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		i.HandleUnauthorized(context.Background(), "http")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested unauthorized handling deadlocked")
	}

	assert.Equal(t, 1, nested)
	assert.Equal(t, 1, nav.redirectCount())
	assert.False(t, i.redirecting)
}

func TestInterceptor_RedirectFailureIsLogged(t *testing.T) {
	logger := &mockLogger{}
	nav := &fakeNavigator{
		current: core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"},
		err:     core.ErrUnknownRoute,
	}
	i, err := NewInterceptor(WithTokenStore(newTokens(t, "abc.def.ghi")), WithNavigator(nav), WithLogger(logger))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/livros", nil)
	i.HandleResponse(unauthorizedExchange(req))

	require.Len(t, logger.warnCalls, 1)
	require.Len(t, logger.errorCalls, 1)
	assert.Contains(t, logger.errorCalls[0].msg, "redirect")
	assert.False(t, i.redirecting, "a failed redirect must not block later ones")
}

func TestInterceptor_WithoutNavigatorOnlyClears(t *testing.T) {
	tokens := newTokens(t, "abc.def.ghi")
	i, err := NewInterceptor(WithTokenStore(tokens))
	require.NoError(t, err)

	i.HandleUnauthorized(context.Background(), "grpc")

	assert.Empty(t, tokens.Read(context.Background()))
}

func TestInterceptor_Register(t *testing.T) {
	tokens := newTokens(t, "abc.def.ghi")
	nav := &fakeNavigator{current: core.Location{Name: "livros", Path: "/livros", FullPath: "/livros"}}
	i, err := NewInterceptor(WithTokenStore(tokens), WithNavigator(nav))
	require.NoError(t, err)

	var gotAuth string
	p := NewPipeline(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return respond(http.StatusUnauthorized, `{"message":"Token expirado"}`)(req)
	}))
	i.Register(p)

	resp, err := p.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/livros", nil))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc.def.ghi", gotAuth)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "caller still sees the 401")
	assert.Empty(t, tokens.Read(context.Background()))
	assert.Equal(t, 1, nav.redirectCount())
}
