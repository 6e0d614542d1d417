package sessionguard

import (
	"context"
	"errors"
	"net/http"

	"github.com/biblioteca-app/sessionguard/core"
)

// Evaluator decides a navigation. It is satisfied by *core.Guard.
type Evaluator interface {
	Evaluate(ctx context.Context, to core.Location) core.Decision
}

// ErrorHandler is called when a page request cannot be resolved to a route.
// The err can be checked against core.ErrNoRoute and
// core.ErrRouteRedirectLoop.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler answers 404 for paths without a route and 500 for
// everything else.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, core.ErrNoRoute):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Page not found."}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong while resolving the page."}`))
	}
}

// PageGuard applies the navigation guard to page requests of an HTTP server
// that serves a single session, such as a local desktop host. Allowed
// requests reach the next handler with the resolved core.Location in their
// context; redirect decisions and redirect routes answer 302.
type PageGuard struct {
	routes       *core.Routes
	guard        Evaluator
	errorHandler ErrorHandler
	logger       Logger
}

// PageOption configures a PageGuard.
type PageOption func(*PageGuard) error

// WithErrorHandler sets the handler for unresolvable page requests.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) PageOption {
	return func(p *PageGuard) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		p.errorHandler = h
		return nil
	}
}

// WithPageLogger sets an optional logger for the PageGuard.
func WithPageLogger(logger Logger) PageOption {
	return func(p *PageGuard) error {
		if logger == nil {
			return ErrLoggerNil
		}
		p.logger = logger
		return nil
	}
}

var (
	ErrRoutesNil       = errors.New("routes cannot be nil")
	ErrGuardNil        = errors.New("guard cannot be nil")
	ErrErrorHandlerNil = errors.New("errorHandler cannot be nil")
)

// NewPageGuard builds a PageGuard over routes.
func NewPageGuard(routes *core.Routes, guard Evaluator, opts ...PageOption) (*PageGuard, error) {
	if routes == nil {
		return nil, ErrRoutesNil
	}
	if guard == nil {
		return nil, ErrGuardNil
	}

	p := &PageGuard{
		routes:       routes,
		guard:        guard,
		errorHandler: DefaultErrorHandler,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Handler is the PageGuard middleware. It is passed a http.Handler which is
// called when the guard allows the request.
func (p *PageGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc, err := p.routes.Resolve(r.URL.RequestURI())
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("failed to resolve page request", "error", err, "path", r.URL.Path)
			}
			p.errorHandler(w, r, err)
			return
		}

		decision := p.guard.Evaluate(r.Context(), loc)
		if decision.IsRedirect() {
			href, err := p.routes.Href(decision.Target)
			if err != nil {
				p.errorHandler(w, r, err)
				return
			}
			if p.logger != nil {
				p.logger.Debug("page request redirected by guard",
					"path", r.URL.Path, "action", decision.Action, "location", href)
			}
			http.Redirect(w, r, href, http.StatusFound)
			return
		}

		// A redirect route resolved somewhere else: show the browser the
		// canonical location.
		if loc.Path != r.URL.Path {
			http.Redirect(w, r, loc.FullPath, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(core.SetLocation(r.Context(), loc)))
	})
}
