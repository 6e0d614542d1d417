// Package sessiongin adapts the sessionguard page guard to Gin.
package sessiongin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biblioteca-app/sessionguard"
	"github.com/biblioteca-app/sessionguard/core"
)

// DefaultLocationKey is the gin.Context key holding the resolved core.Location.
const DefaultLocationKey = "sessionguard.location"

type ginMiddlewareConfig struct {
	contextKey string
}

// NewGinMiddleware applies pages to every request of the engine or group it
// is used on. Redirected and unresolvable requests are answered by the page
// guard and the chain is aborted.
func NewGinMiddleware(pages *sessionguard.PageGuard, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{contextKey: DefaultLocationKey}
	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		allowed := false
		var next http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			allowed = true
			c.Request = r

			if loc, ok := core.GetLocation(r.Context()); ok {
				c.Set(config.contextKey, loc)
			}

			c.Next()
		}

		pages.Handler(next).ServeHTTP(c.Writer, c.Request)

		if !allowed {
			c.Abort()
		}
	}
}

// GetLocation returns the location stored by the middleware under
// contextKey, or DefaultLocationKey when contextKey is empty.
func GetLocation(c *gin.Context, contextKey string) (core.Location, bool) {
	if contextKey == "" {
		contextKey = DefaultLocationKey
	}
	v, ok := c.Get(contextKey)
	if !ok {
		return core.Location{}, false
	}
	loc, ok := v.(core.Location)
	return loc, ok
}
