package sessionecho

// Option is a function that configures the middleware
type Option func(*echoMiddlewareConfig)

// WithContextKey sets a custom context key to store the location
func WithContextKey(key string) Option {
	return func(config *echoMiddlewareConfig) {
		if key != "" {
			config.contextKey = key
		}
	}
}
