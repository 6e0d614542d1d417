package core

import "errors"

// Configuration errors.
var (
	// ErrTokenStoreNil is returned when no token store is configured.
	ErrTokenStoreNil = errors.New("token store is required but not set (use WithTokenStore option)")

	// ErrValidatorNil is returned when no validator is configured.
	ErrValidatorNil = errors.New("validator is required but not set (use WithValidator option)")

	// ErrLoggerNil is returned by WithLogger when given a nil logger.
	ErrLoggerNil = errors.New("logger cannot be nil")

	// ErrEmptyOption is returned when a string option is empty.
	ErrEmptyOption = errors.New("option value cannot be empty")
)

// Route errors.
var (
	// ErrConflictingPolicy is returned when a route is marked both
	// requires-auth and guest-only.
	ErrConflictingPolicy = errors.New("route cannot be both requires-auth and guest-only")

	// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
	ErrUnknownPolicy = errors.New("unknown route policy")

	// ErrInvalidRoute is returned by NewRoutes for a malformed route table.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrNoRoute is returned when a path matches no route and there is no
	// catch-all route.
	ErrNoRoute = errors.New("no route matches path")

	// ErrUnknownRoute is returned when a target names a route that does not exist.
	ErrUnknownRoute = errors.New("unknown route name")

	// ErrRouteRedirectLoop is returned when redirect routes point at each other.
	ErrRouteRedirectLoop = errors.New("route redirects do not terminate")
)
