package sessionguard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/biblioteca-app/sessionguard/core"
)

// TokenStore is the session state the interceptor reads and resets.
// It is satisfied by *store.Store.
type TokenStore interface {
	Read(ctx context.Context) string
	Clear(ctx context.Context) error
}

// Navigator is the router the interceptor sends users to the login route
// with. It is satisfied by *router.Router.
type Navigator interface {
	Current() core.Location
	Redirect(ctx context.Context, t core.Target) error
}

// Interceptor attaches the stored token to outgoing requests and resets the
// session when the server answers 401.
type Interceptor struct {
	tokens        TokenStore
	navigator     Navigator
	loginRoute    string
	redirectParam string
	fallbackPath  string
	logger        Logger
	metrics       Metrics
	tracer        Tracer

	// mu serializes session resets. redirecting is set while a login
	// redirect is in flight, so concurrent or nested 401s redirect once.
	mu          sync.Mutex
	redirecting bool
}

// NewInterceptor constructs an Interceptor with the supplied options.
//
// Example:
//
//	i, err := sessionguard.NewInterceptor(
//	    sessionguard.WithTokenStore(tokens),
//	    sessionguard.WithNavigator(r),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create interceptor: %v", err)
//	}
//	i.Register(pipeline)
func NewInterceptor(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		loginRoute:    core.DefaultLoginRoute,
		redirectParam: core.DefaultRedirectParam,
		fallbackPath:  core.DefaultLandingPath,
		metrics:       &NoopMetrics{},
		tracer:        &NoopTracer{},
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if i.tokens == nil {
		return nil, ErrTokenStoreNil
	}

	return i, nil
}

// Register wires AttachCredentials and HandleResponse into r.
func (i *Interceptor) Register(r Registrar) {
	r.RegisterRequestHook(i.AttachCredentials)
	r.RegisterResponseHook(i.HandleResponse)
}

// AttachCredentials sets "Authorization: Bearer <token>" when a token is
// stored. Without a token the request is left untouched. It never fails.
func (i *Interceptor) AttachCredentials(req *http.Request) error {
	token := i.tokens.Read(req.Context())
	if token == "" {
		return nil
	}

	req.Header.Set("Authorization", "Bearer "+token)
	i.metrics.IncCounter(MetricCredentialsAttached, map[string]string{"transport": "http"})
	return nil
}

// HandleResponse resets the session when the exchange failed with 401.
// All other outcomes are ignored.
func (i *Interceptor) HandleResponse(req *http.Request, resp *http.Response, err error) {
	if !IsUnauthorized(resp, err) {
		return
	}

	if i.logger != nil {
		i.logger.Warn("Server rejected credentials, resetting session",
			"method", req.Method,
			"url", req.URL.Redacted())
	}

	i.HandleUnauthorized(req.Context(), "http")
}

// HandleUnauthorized clears the stored session and, unless the user is
// already on the login route, redirects there with the current full path as
// the resume target. transport labels metrics and spans.
func (i *Interceptor) HandleUnauthorized(ctx context.Context, transport string) {
	ctx, span := i.tracer.StartSpan(ctx, "sessionguard.unauthorized")
	defer span.Finish()
	span.SetTag("transport", transport)

	redirect, ok := i.reset(ctx, span, transport)
	if !ok {
		span.SetTag("redirected", false)
		return
	}
	defer func() {
		i.mu.Lock()
		i.redirecting = false
		i.mu.Unlock()
	}()

	err := i.navigator.Redirect(ctx, core.Target{
		Name:  i.loginRoute,
		Query: url.Values{i.redirectParam: {redirect}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetTag("redirected", false)
		if i.logger != nil {
			i.logger.Error("Failed to redirect to login", "error", err, "redirect", redirect)
		}
		return
	}

	span.SetTag("redirected", true)
	i.metrics.IncCounter(MetricLoginRedirects, map[string]string{"transport": transport})
	if i.logger != nil {
		i.logger.Info("Redirected to login", "redirect", redirect)
	}
}

// reset clears the session and claims the pending login redirect. It
// reports the resume path and whether the caller must perform the redirect.
func (i *Interceptor) reset(ctx context.Context, span Span, transport string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.tokens.Clear(ctx); err != nil {
		span.RecordError(err)
		if i.logger != nil {
			i.logger.Error("Failed to clear session", "error", err)
		}
	}
	i.metrics.IncCounter(MetricSessionResets, map[string]string{"transport": transport})
	i.metrics.SetGauge(MetricSessionActive, 0, nil)

	if i.navigator == nil || i.redirecting {
		return "", false
	}

	current := i.navigator.Current()
	if current.Name == i.loginRoute {
		if i.logger != nil {
			i.logger.Debug("Already on login route, not redirecting")
		}
		return "", false
	}

	i.redirecting = true
	if current.FullPath == "" {
		return i.fallbackPath, true
	}
	return current.FullPath, true
}
