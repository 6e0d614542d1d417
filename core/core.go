package core

import (
	"context"
	"net/url"
)

// Defaults for the Biblioteca application.
const (
	DefaultLoginRoute    = "login"
	DefaultLandingPath   = "/livros"
	DefaultRedirectParam = "redirect"
)

// TokenStore is the session state the guard reads and clears.
// It is satisfied by *store.Store.
type TokenStore interface {
	Read(ctx context.Context) string
	Clear(ctx context.Context) error
}

// TokenValidator decides whether a token is usable.
// It is satisfied by *validator.Validator.
type TokenValidator interface {
	IsValid(token string) bool
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Guard decides every navigation attempt. It holds no per-navigation state
// and is safe for concurrent use if its store and validator are.
type Guard struct {
	tokens        TokenStore
	validator     TokenValidator
	loginRoute    string
	defaultPath   string
	redirectParam string
	logger        Logger
}

// Evaluate decides a navigation to to. Session validity is recomputed on
// every call.
func (g *Guard) Evaluate(ctx context.Context, to Location) Decision {
	token := g.tokens.Read(ctx)
	authenticated := g.validator.IsValid(token)

	switch {
	case to.Policy == RequiresAuth && !authenticated:
		if token != "" {
			if err := g.tokens.Clear(ctx); err != nil && g.logger != nil {
				g.logger.Warn("Failed to clear stale token", "error", err)
			}
		}

		if g.logger != nil {
			g.logger.Info("Redirecting unauthenticated navigation to login",
				"to", to.FullPath, "stale_token", token != "")
		}

		return Decision{
			Action: RedirectToLogin,
			Target: Target{
				Name:  g.loginRoute,
				Query: url.Values{g.redirectParam: {to.FullPath}},
			},
		}

	case to.Policy == GuestOnly && authenticated:
		path := g.awayPath(to)

		if g.logger != nil {
			g.logger.Debug("Redirecting authenticated navigation off guest-only route",
				"to", to.FullPath, "redirect", path)
		}

		return Decision{
			Action: RedirectAway,
			Target: Target{Path: path},
		}

	default:
		if g.logger != nil {
			g.logger.Debug("Navigation allowed", "to", to.FullPath, "policy", to.Policy)
		}

		return Decision{Action: Allow}
	}
}

// BeforeEach is the router hook form of Evaluate. It calls next exactly once.
func (g *Guard) BeforeEach(ctx context.Context, to, from Location, next func(Decision)) {
	if g.logger != nil {
		g.logger.Debug("Guarding navigation", "from", from.FullPath, "to", to.FullPath)
	}

	next(g.Evaluate(ctx, to))
}

// LoginRoute returns the name of the login route.
func (g *Guard) LoginRoute() string {
	return g.loginRoute
}

// RedirectParam returns the query parameter carrying the resume path.
func (g *Guard) RedirectParam() string {
	return g.redirectParam
}

// awayPath returns the requested resume path, or the default landing path
// when it is absent or leaves the application.
func (g *Guard) awayPath(to Location) string {
	if requested := to.Query.Get(g.redirectParam); isLocalPath(requested) {
		return requested
	}
	return g.defaultPath
}
