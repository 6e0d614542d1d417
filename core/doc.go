/*
Package core holds the framework-agnostic navigation guard.

The Guard runs before every navigation. It reads the stored token, asks the
validator whether it is still usable, and compares the answer with the target
route's access policy:

	┌──────────────────────────────────────────────┐
	│      Routing / transport adapters            │
	│  (router, net/http, Gin, Echo)               │
	└────────────────┬─────────────────────────────┘
	                 │ Location
	                 ▼
	┌──────────────────────────────────────────────┐
	│          Guard (THIS PACKAGE)                │
	│  • public        -> allow                    │
	│  • requires-auth -> allow or login redirect  │
	│  • guest-only    -> allow or redirect away   │
	└────────────────┬─────────────────────────────┘
	                 │ Read / Clear, IsValid
	                 ▼
	┌──────────────────────────────────────────────┐
	│    Token store          Token validator      │
	└──────────────────────────────────────────────┘

# Basic Usage

	g, err := core.New(
	    core.WithTokenStore(tokens),
	    core.WithValidator(v),
	)
	if err != nil {
	    log.Fatal(err)
	}

	routes := core.DefaultRoutes()
	to, err := routes.Resolve("/autores?page=2")
	if err != nil {
	    log.Fatal(err)
	}

	switch d := g.Evaluate(ctx, to); d.Action {
	case core.Allow:
	    // render the view
	case core.RedirectToLogin, core.RedirectAway:
	    href, _ := routes.Href(d.Target)
	    // navigate to href
	}

# Decisions

Every evaluation yields exactly one Decision. A protected route without a valid
token redirects to the login route with the intended full path in the redirect
query parameter; a stale token found on the way is cleared. A guest-only route
with a valid token redirects to the path named by the redirect query parameter,
or to the default landing path. Everything else is allowed.

# Routes

Routes maps paths to names and policies. Redirect routes and the catch-all
route "*" are followed while resolving, so an unknown path lands on the
default page instead of failing.
*/
package core
