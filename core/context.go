package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	locationKey contextKey = iota
)

// SetLocation stores the Location an adapter resolved for a request.
func SetLocation(ctx context.Context, loc Location) context.Context {
	return context.WithValue(ctx, locationKey, loc)
}

// GetLocation retrieves the Location stored by SetLocation.
func GetLocation(ctx context.Context) (Location, bool) {
	loc, ok := ctx.Value(locationKey).(Location)
	return loc, ok
}
