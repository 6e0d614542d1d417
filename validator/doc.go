/*
Package validator decides whether a stored credential token is currently usable.

The check is a client-side convenience, not a security boundary: the token's
payload is decoded and its exp claim compared against the clock, but the
signature is never verified. The issuing server still authorizes every request.

# Basic Usage

	if validator.IsValid(token) {
	    // token decodes and has not expired
	}

A Validator with an injected clock is useful in tests and when the reason for
rejection matters:

	v, err := validator.New(validator.WithClock(clock.Now))
	if err != nil {
	    log.Fatal(err)
	}

	if err := v.Check(token); err != nil {
	    switch {
	    case errors.Is(err, validator.ErrTokenMissing):
	    case errors.Is(err, validator.ErrTokenExpired):
	    case errors.Is(err, validator.ErrTokenMalformed):
	    }
	}

# Validity

A token is valid iff it has exactly three dot-separated segments, the middle
segment is base64url (or standard base64) JSON holding a numeric exp claim, and
the current time in milliseconds is strictly less than exp*1000. A token whose
exp equals the current second is already expired.

Decoding failures of any kind are reported as ErrTokenMalformed by Check and as
false by IsValid. Neither ever panics.

# Inspecting Claims

Inspect returns the subject, roles and timestamps carried by the payload for
display purposes. The same untrusted decoding applies.
*/
package validator
