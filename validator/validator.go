package validator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const expClaim = "exp"

// Both base64 alphabets are accepted in the payload.
var urlAlphabet = strings.NewReplacer("+", "-", "/", "_")

// Validator checks credential tokens against the clock.
// It is safe for concurrent use.
type Validator struct {
	now    func() time.Time
	parser *jwt.Parser
}

// New sets up a new Validator with the supplied options.
func New(opts ...Option) (*Validator, error) {
	v := newValidator()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return v, nil
}

func newValidator() *Validator {
	return &Validator{
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
	}
}

var defaultValidator = newValidator()

// IsValid reports whether token is present, decodes, and has not expired,
// using the wall clock.
func IsValid(token string) bool {
	return defaultValidator.IsValid(token)
}

// IsValid reports whether token is present, decodes, and has not expired.
func (v *Validator) IsValid(token string) bool {
	return v.Check(token) == nil
}

// Check returns nil for a usable token and a *ValidationError otherwise.
func (v *Validator) Check(token string) error {
	if token == "" {
		return NewValidationError(ErrorCodeTokenMissing, "no token", nil)
	}

	claims, err := v.claims(token)
	if err != nil {
		return err
	}

	if _, ok := claims[expClaim]; !ok {
		return NewValidationError(ErrorCodeTokenMalformed, "exp claim is missing", nil)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return NewValidationError(ErrorCodeTokenMalformed, "exp claim is not numeric", err)
	}

	// MapClaims reports exp == 0 as absent; it is the epoch.
	expiry := time.Unix(0, 0)
	if exp != nil {
		expiry = exp.Time
	}

	if v.now().UnixMilli() >= expiry.UnixMilli() {
		return NewValidationError(
			ErrorCodeTokenExpired,
			fmt.Sprintf("token expired at %s", expiry.UTC().Format(time.RFC3339)),
			nil,
		)
	}

	return nil
}

func (v *Validator) claims(token string) (jwt.MapClaims, error) {
	payload, err := v.payload(token)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, NewValidationError(ErrorCodeTokenMalformed, "payload is not a JSON object", err)
	}

	return claims, nil
}

// payload returns the decoded middle segment of token.
func (v *Validator) payload(token string) ([]byte, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, NewValidationError(
			ErrorCodeTokenMalformed,
			fmt.Sprintf("expected 3 segments, got %d", len(segments)),
			nil,
		)
	}

	payload, err := v.parser.DecodeSegment(urlAlphabet.Replace(segments[1]))
	if err != nil {
		return nil, NewValidationError(ErrorCodeTokenMalformed, "payload is not base64", err)
	}

	return payload, nil
}
