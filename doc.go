/*
Package sessionguard keeps the client side of a Biblioteca session consistent:
it attaches the stored token to API requests, resets the session when the
server rejects it, and guards navigation between the application's pages.

The package follows the Core-Adapter pattern. The navigation decision lives in
the core package and is framework-agnostic; this package is the HTTP adapter
(request/response pipeline, API client, page middleware), while framework/gin,
framework/echo and integrations/grpc adapt the same pieces to other stacks.

# Quick Start

	import (
	    "github.com/biblioteca-app/sessionguard"
	    "github.com/biblioteca-app/sessionguard/core"
	    "github.com/biblioteca-app/sessionguard/router"
	    "github.com/biblioteca-app/sessionguard/store"
	    "github.com/biblioteca-app/sessionguard/validator"
	)

	func main() {
	    ctx := context.Background()

	    backend, err := store.NewSQLite("session.db")
	    if err != nil {
	        log.Fatal(err)
	    }
	    tokens, _ := store.New(backend)
	    v, _ := validator.New()

	    guard, _ := core.New(core.WithTokenStore(tokens), core.WithValidator(v))
	    r, _ := router.New(core.DefaultRoutes(), guard)

	    interceptor, err := sessionguard.NewInterceptor(
	        sessionguard.WithTokenStore(tokens),
	        sessionguard.WithNavigator(r),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    client, err := sessionguard.NewClient("http://localhost:8080/api/v1", tokens,
	        sessionguard.WithInterceptor(interceptor),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    if _, err := client.Login(ctx, "ana", "segredo"); err != nil {
	        log.Fatal(err)
	    }

	    var livros []Livro
	    err = client.Get(ctx, "/livros", &livros)
	    if errors.Is(err, sessionguard.ErrUnauthorized) {
	        // The session is gone and r.Current() is the login route.
	    }
	}

# Session Reset

When a response carries status 401 the interceptor clears the token and the
roles, and, unless the current route already is the login route, redirects to
it with the current full path in the "redirect" query parameter. The caller
still receives the 401 as a *StatusError. Resets are serialized: of several
concurrent 401s only the first one redirects.

# Page Guard

PageGuard applies the same decisions to an HTTP server that renders pages for
a single local session:

	pages, _ := sessionguard.NewPageGuard(core.DefaultRoutes(), guard)
	mux := chi.NewRouter()
	mux.Use(pages.Handler)

# Logging

Every component accepts an optional slog-compatible Logger. Adapters are
provided for zap, logrus and zerolog:

	logger := sessionguard.NewZapLogger(zap.NewExample().Sugar())
	interceptor, _ := sessionguard.NewInterceptor(
	    sessionguard.WithTokenStore(tokens),
	    sessionguard.WithLogger(logger),
	)

# Metrics and Tracing

WithMetrics and WithTracer plug in Prometheus and OpenTelemetry. The defaults
are NoopMetrics and NoopTracer.
*/
package sessionguard
