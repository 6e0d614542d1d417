package validator

import "time"

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithClock sets the source of the current time.
//
// Default: time.Now
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return ErrClockNil
		}
		v.now = now
		return nil
	}
}
