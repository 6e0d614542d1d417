package core

import "fmt"

// Option is a function that configures the Guard.
// Options return errors to enable validation during construction.
type Option func(*Guard) error

// New creates a new Guard with the provided options.
//
// WithTokenStore and WithValidator are required. Everything else defaults to
// the Biblioteca application: login route "login", landing path "/livros",
// and the "redirect" query parameter.
//
// Example:
//
//	g, err := core.New(
//	    core.WithTokenStore(tokens),
//	    core.WithValidator(v),
//	    core.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Guard, error) {
	g := &Guard{
		loginRoute:    DefaultLoginRoute,
		defaultPath:   DefaultLandingPath,
		redirectParam: DefaultRedirectParam,
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// validate ensures all required fields are set.
func (g *Guard) validate() error {
	if g.tokens == nil {
		return ErrTokenStoreNil
	}
	if g.validator == nil {
		return ErrValidatorNil
	}
	return nil
}

// WithTokenStore sets the session state the guard reads and clears.
// This is a required option.
func WithTokenStore(tokens TokenStore) Option {
	return func(g *Guard) error {
		if tokens == nil {
			return ErrTokenStoreNil
		}
		g.tokens = tokens
		return nil
	}
}

// WithValidator sets the token validator.
// This is a required option.
func WithValidator(validator TokenValidator) Option {
	return func(g *Guard) error {
		if validator == nil {
			return ErrValidatorNil
		}
		g.validator = validator
		return nil
	}
}

// WithLoginRoute sets the name of the route unauthenticated users are sent to.
//
// Default: "login"
func WithLoginRoute(name string) Option {
	return func(g *Guard) error {
		if name == "" {
			return fmt.Errorf("login route: %w", ErrEmptyOption)
		}
		g.loginRoute = name
		return nil
	}
}

// WithDefaultPath sets the landing path for authenticated users leaving a
// guest-only route without a requested destination.
//
// Default: "/livros"
func WithDefaultPath(path string) Option {
	return func(g *Guard) error {
		if !isLocalPath(path) {
			return fmt.Errorf("%w: default path %q must be a local path", ErrInvalidRoute, path)
		}
		g.defaultPath = path
		return nil
	}
}

// WithRedirectParam sets the query parameter that carries the path to resume
// after login.
//
// Default: "redirect"
func WithRedirectParam(param string) Option {
	return func(g *Guard) error {
		if param == "" {
			return fmt.Errorf("redirect param: %w", ErrEmptyOption)
		}
		g.redirectParam = param
		return nil
	}
}

// WithLogger sets an optional logger for the Guard.
//
// When configured, the Guard logs every decision at debug level and login
// redirects at info level.
func WithLogger(logger Logger) Option {
	return func(g *Guard) error {
		if logger == nil {
			return ErrLoggerNil
		}
		g.logger = logger
		return nil
	}
}
