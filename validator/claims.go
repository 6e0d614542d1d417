package validator

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the payload fields shown to the user. They are decoded, not
// verified.
type Claims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type payloadClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Inspect decodes the payload of token. It does not check expiry.
func Inspect(token string) (*Claims, error) {
	return defaultValidator.Inspect(token)
}

// Inspect decodes the payload of token. It does not check expiry.
func (v *Validator) Inspect(token string) (*Claims, error) {
	if token == "" {
		return nil, NewValidationError(ErrorCodeTokenMissing, "no token", nil)
	}

	payload, err := v.payload(token)
	if err != nil {
		return nil, err
	}

	var pc payloadClaims
	if err := json.Unmarshal(payload, &pc); err != nil {
		return nil, NewValidationError(ErrorCodeTokenMalformed, "payload claims could not be decoded", err)
	}

	claims := &Claims{
		Subject: pc.Subject,
		Roles:   pc.Roles,
	}
	if pc.IssuedAt != nil {
		claims.IssuedAt = pc.IssuedAt.Time
	}
	if pc.ExpiresAt != nil {
		claims.ExpiresAt = pc.ExpiresAt.Time
	}

	return claims, nil
}
