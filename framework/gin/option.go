package sessiongin

// Option defines a functional option for configuring the middleware
type Option func(*ginMiddlewareConfig)

// WithContextKey sets the gin.Context key the resolved location is stored under.
func WithContextKey(key string) Option {
	return func(config *ginMiddlewareConfig) {
		if key != "" {
			config.contextKey = key
		}
	}
}
