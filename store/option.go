package store

import "errors"

var (
	// ErrBackendNil is returned by New when no backend is given.
	ErrBackendNil = errors.New("backend cannot be nil")

	// ErrLoggerNil is returned by WithLogger when given a nil logger.
	ErrLoggerNil = errors.New("logger cannot be nil")
)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets an optional logger for the Store.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return ErrLoggerNil
		}
		s.logger = logger
		return nil
	}
}
