package grpc

import (
	"context"
	"errors"
)

// Option configures the session interceptor.
type Option func(*Interceptor) error

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenStore is the session state the interceptor reads and resets.
// It is satisfied by *store.Store.
type TokenStore interface {
	Read(ctx context.Context) string
	Clear(ctx context.Context) error
}

// UnauthorizedHandler resets the session after the server rejected it.
// It is satisfied by *sessionguard.Interceptor.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, transport string)
}

var (
	ErrTokenStoreNil = errors.New("token store is required, use WithTokenStore option")
	ErrHandlerNil    = errors.New("unauthorized handler cannot be nil")
	ErrLoggerNil     = errors.New("logger cannot be nil")
)

// WithTokenStore sets the session state tokens are read from (REQUIRED).
func WithTokenStore(tokens TokenStore) Option {
	return func(i *Interceptor) error {
		if tokens == nil {
			return ErrTokenStoreNil
		}
		i.tokens = tokens
		return nil
	}
}

// WithUnauthorizedHandler sets what runs on codes.Unauthenticated.
//
// Default: clear the token store without navigating
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(i *Interceptor) error {
		if h == nil {
			return ErrHandlerNil
		}
		i.handler = h
		return nil
	}
}

// WithExcludedMethods configures full method names that do not carry the
// session.
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor.
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrLoggerNil
		}
		i.logger = logger
		return nil
	}
}
