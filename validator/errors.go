package validator

import "errors"

// Sentinel errors for token checks.
var (
	// ErrTokenInvalid matches every error returned by Check.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenMissing is returned when there is no token to check.
	ErrTokenMissing = errors.New("token missing")

	// ErrTokenMalformed is returned when the token cannot be decoded or lacks
	// a numeric exp claim.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired is returned when the exp claim is not in the future.
	ErrTokenExpired = errors.New("token expired")

	// ErrClockNil is returned by WithClock when given a nil clock.
	ErrClockNil = errors.New("clock cannot be nil")
)

// Error codes carried by ValidationError.
const (
	ErrorCodeTokenMissing   = "token_missing"
	ErrorCodeTokenMalformed = "token_malformed"
	ErrorCodeTokenExpired   = "token_expired"
)

var sentinelByCode = map[string]error{
	ErrorCodeTokenMissing:   ErrTokenMissing,
	ErrorCodeTokenMalformed: ErrTokenMalformed,
	ErrorCodeTokenExpired:   ErrTokenExpired,
}

// ValidationError describes why a token was rejected. It can be used for
// logging and metrics labels without string matching.
type ValidationError struct {
	// Code is a machine-readable error code (e.g., "token_expired").
	Code string

	// Message is a human-readable error message.
	Message string

	// Details contains the underlying error, if any.
	Details error
}

// NewValidationError creates a new ValidationError with the given code and message.
func NewValidationError(code, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is reports whether target is ErrTokenInvalid or the sentinel matching Code.
func (e *ValidationError) Is(target error) bool {
	if target == ErrTokenInvalid {
		return true
	}
	sentinel, ok := sentinelByCode[e.Code]
	return ok && target == sentinel
}
