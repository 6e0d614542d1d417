package sessionguard

import (
	"errors"
	"fmt"
)

// Option configures the Interceptor.
// Returns error for validation failures.
type Option func(*Interceptor) error

// WithTokenStore sets the session state to read tokens from and reset
// (REQUIRED).
func WithTokenStore(tokens TokenStore) Option {
	return func(i *Interceptor) error {
		if tokens == nil {
			return ErrTokenStoreNil
		}
		i.tokens = tokens
		return nil
	}
}

// WithNavigator sets the router used to send the user to the login route
// after the server rejects the session. Without one the session is still
// cleared but nothing navigates.
func WithNavigator(n Navigator) Option {
	return func(i *Interceptor) error {
		if n == nil {
			return ErrNavigatorNil
		}
		i.navigator = n
		return nil
	}
}

// WithLoginRoute sets the name of the login route.
//
// Default: "login"
func WithLoginRoute(name string) Option {
	return func(i *Interceptor) error {
		if name == "" {
			return fmt.Errorf("login route: %w", ErrEmptyOption)
		}
		i.loginRoute = name
		return nil
	}
}

// WithRedirectParam sets the login query parameter that carries the path to
// resume after login.
//
// Default: "redirect"
func WithRedirectParam(param string) Option {
	return func(i *Interceptor) error {
		if param == "" {
			return fmt.Errorf("redirect param: %w", ErrEmptyOption)
		}
		i.redirectParam = param
		return nil
	}
}

// WithFallbackPath sets the resume path used when the current location has
// no full path.
//
// Default: "/livros"
func WithFallbackPath(path string) Option {
	return func(i *Interceptor) error {
		if path == "" {
			return fmt.Errorf("fallback path: %w", ErrEmptyOption)
		}
		i.fallbackPath = path
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor.
//
// The logger interface is compatible with log/slog.Logger and similar loggers.
//
// Example:
//
//	i, err := sessionguard.NewInterceptor(
//	    sessionguard.WithTokenStore(tokens),
//	    sessionguard.WithLogger(slog.Default()),
//	)
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrLoggerNil
		}
		i.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
//
// Default: NoopMetrics
func WithMetrics(m Metrics) Option {
	return func(i *Interceptor) error {
		if m == nil {
			return ErrMetricsNil
		}
		i.metrics = m
		return nil
	}
}

// WithTracer sets the tracer wrapped around session resets.
//
// Default: NoopTracer
func WithTracer(t Tracer) Option {
	return func(i *Interceptor) error {
		if t == nil {
			return ErrTracerNil
		}
		i.tracer = t
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrTokenStoreNil = errors.New("token store cannot be nil (use WithTokenStore)")
	ErrNavigatorNil  = errors.New("navigator cannot be nil")
	ErrEmptyOption   = errors.New("option value cannot be empty")
	ErrLoggerNil     = errors.New("logger cannot be nil")
	ErrMetricsNil    = errors.New("metrics cannot be nil")
	ErrTracerNil     = errors.New("tracer cannot be nil")
)
