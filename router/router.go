// Package router is a small in-process router. It keeps the current
// location, runs a navigation guard before every navigation and follows the
// redirect decisions the guard makes.
//
// Example:
//
//	guard, _ := core.New(core.WithTokenStore(tokens), core.WithValidator(v))
//	r, _ := router.New(core.DefaultRoutes(), guard)
//	loc, err := r.Push(ctx, "/autores")
//	// loc.Name == "login" when there is no session
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/biblioteca-app/sessionguard/core"
)

// DefaultMaxRedirects bounds how many guard redirects one navigation follows.
const DefaultMaxRedirects = 10

var (
	// ErrRoutesNil is returned when New is given a nil route table.
	ErrRoutesNil = errors.New("routes cannot be nil")

	// ErrGuardNil is returned when New is given a nil guard.
	ErrGuardNil = errors.New("guard cannot be nil")

	// ErrLoggerNil is returned by WithLogger when given a nil logger.
	ErrLoggerNil = errors.New("logger cannot be nil")

	// ErrInvalidMaxRedirects is returned by WithMaxRedirects for negative values.
	ErrInvalidMaxRedirects = errors.New("max redirects cannot be negative")

	// ErrRedirectLoop is returned when guard redirects do not settle.
	ErrRedirectLoop = errors.New("navigation redirects do not settle")
)

// Guard is the navigation hook run before every navigation.
// It is satisfied by *core.Guard.
type Guard interface {
	BeforeEach(ctx context.Context, to, from core.Location, next func(core.Decision))
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ChangeFunc is called after the current location changed.
type ChangeFunc func(from, to core.Location)

// Router holds the current location. It is safe for concurrent use;
// navigations are applied one at a time.
type Router struct {
	mu           sync.Mutex
	routes       *core.Routes
	guard        Guard
	current      core.Location
	listeners    []ChangeFunc
	maxRedirects int
	logger       Logger
}

// Option configures the Router.
type Option func(*Router) error

// WithMaxRedirects sets how many guard redirects one navigation follows
// before failing with ErrRedirectLoop.
//
// Default: 10
func WithMaxRedirects(n int) Option {
	return func(r *Router) error {
		if n < 0 {
			return ErrInvalidMaxRedirects
		}
		r.maxRedirects = n
		return nil
	}
}

// WithLogger sets an optional logger for the Router.
func WithLogger(logger Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			return ErrLoggerNil
		}
		r.logger = logger
		return nil
	}
}

// New creates a Router over routes, guarded by guard. The current location
// starts empty until the first navigation.
func New(routes *core.Routes, guard Guard, opts ...Option) (*Router, error) {
	if routes == nil {
		return nil, ErrRoutesNil
	}
	if guard == nil {
		return nil, ErrGuardNil
	}

	r := &Router{
		routes:       routes,
		guard:        guard,
		maxRedirects: DefaultMaxRedirects,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Current returns the location currently displayed.
func (r *Router) Current() core.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// OnChange registers fn to be called after every completed navigation.
func (r *Router) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Push navigates to rawPath and returns the location that ends up displayed.
func (r *Router) Push(ctx context.Context, rawPath string) (core.Location, error) {
	return r.navigate(ctx, rawPath)
}

// Redirect navigates to t.
func (r *Router) Redirect(ctx context.Context, t core.Target) error {
	href, err := r.routes.Href(t)
	if err != nil {
		return err
	}
	_, err = r.navigate(ctx, href)
	return err
}

func (r *Router) navigate(ctx context.Context, rawPath string) (core.Location, error) {
	r.mu.Lock()

	from := r.current
	to, err := r.settle(ctx, from, rawPath)
	if err != nil {
		r.mu.Unlock()
		return core.Location{}, err
	}

	r.current = to
	listeners := append([]ChangeFunc(nil), r.listeners...)
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("Navigated", "from", from.FullPath, "to", to.FullPath)
	}

	for _, fn := range listeners {
		fn(from, to)
	}

	return to, nil
}

// settle resolves rawPath and follows guard redirects until a navigation is
// allowed. Callers hold r.mu.
func (r *Router) settle(ctx context.Context, from core.Location, rawPath string) (core.Location, error) {
	for hop := 0; hop <= r.maxRedirects; hop++ {
		if err := ctx.Err(); err != nil {
			return core.Location{}, err
		}

		to, err := r.routes.Resolve(rawPath)
		if err != nil {
			return core.Location{}, err
		}

		var decision core.Decision
		r.guard.BeforeEach(ctx, to, from, func(d core.Decision) {
			decision = d
		})

		if !decision.IsRedirect() {
			return to, nil
		}

		rawPath, err = r.routes.Href(decision.Target)
		if err != nil {
			return core.Location{}, fmt.Errorf("guard redirect %s: %w", decision.Action, err)
		}

		if r.logger != nil {
			r.logger.Debug("Guard redirected navigation",
				"to", to.FullPath, "action", decision.Action, "redirect", rawPath)
		}
	}

	if r.logger != nil {
		r.logger.Warn("Navigation redirect limit reached", "path", rawPath, "max_redirects", r.maxRedirects)
	}

	return core.Location{}, fmt.Errorf("%w after %d redirects", ErrRedirectLoop, r.maxRedirects)
}
