// Package sessionecho adapts the sessionguard page guard to Echo.
package sessionecho

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/biblioteca-app/sessionguard"
	"github.com/biblioteca-app/sessionguard/core"
)

// DefaultLocationKey is the echo.Context key holding the resolved core.Location.
var DefaultLocationKey = "sessionguard.location"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	contextKey string
}

// NewEchoMiddleware applies pages to every request. Redirected and
// unresolvable requests are answered by the page guard and never reach next.
func NewEchoMiddleware(pages *sessionguard.PageGuard, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{contextKey: DefaultLocationKey}
	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error
			var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)

				if loc, ok := core.GetLocation(r.Context()); ok {
					c.Set(config.contextKey, loc)
				}

				nextErr = next(c)
			}

			pages.Handler(handler).ServeHTTP(c.Response(), c.Request())
			return nextErr
		}
	}
}

// GetLocation extracts the location from the Echo context
func GetLocation(c echo.Context, contextKey string) (core.Location, bool) {
	loc, ok := c.Get(contextKey).(core.Location)
	return loc, ok
}
