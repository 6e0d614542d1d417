package core

import (
	"fmt"
	"net/url"
	"strings"
)

// CatchAll is the Path of the route used when nothing else matches.
const CatchAll = "*"

const maxRouteRedirects = 8

// Route is one entry of the route table. A route with Redirect set is never
// displayed: resolving it continues at the Redirect path.
type Route struct {
	Name     string
	Path     string
	Policy   Policy
	Redirect string
}

// Routes is an immutable route table.
type Routes struct {
	byPath   map[string]Route
	byName   map[string]Route
	catchAll *Route
}

// NewRoutes builds a route table. Paths and non-empty names must be unique,
// paths must be absolute or CatchAll, and redirects must be absolute paths.
func NewRoutes(routes ...Route) (*Routes, error) {
	r := &Routes{
		byPath: make(map[string]Route, len(routes)),
		byName: make(map[string]Route, len(routes)),
	}

	for _, route := range routes {
		if route.Path != CatchAll && !strings.HasPrefix(route.Path, "/") {
			return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, route.Path)
		}
		if route.Redirect != "" && !isLocalPath(route.Redirect) {
			return nil, fmt.Errorf("%w: redirect %q of %q must be a local path", ErrInvalidRoute, route.Redirect, route.Path)
		}
		if _, ok := policyNames[route.Policy]; !ok {
			return nil, fmt.Errorf("%w: %s on %q", ErrUnknownPolicy, route.Policy, route.Path)
		}

		if route.Path == CatchAll {
			if r.catchAll != nil {
				return nil, fmt.Errorf("%w: more than one catch-all route", ErrInvalidRoute)
			}
			catchAll := route
			r.catchAll = &catchAll
		} else {
			if _, dup := r.byPath[route.Path]; dup {
				return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidRoute, route.Path)
			}
			r.byPath[route.Path] = route
		}

		if route.Name != "" {
			if _, dup := r.byName[route.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRoute, route.Name)
			}
			r.byName[route.Name] = route
		}
	}

	return r, nil
}

// DefaultRoutes returns the Biblioteca route table.
func DefaultRoutes() *Routes {
	routes, err := NewRoutes(defaultRouteList()...)
	if err != nil {
		panic(err)
	}
	return routes
}

func defaultRouteList() []Route {
	return []Route{
		{Path: "/", Redirect: DefaultLandingPath},
		{Name: "login", Path: "/login", Policy: GuestOnly},
		{Name: "cadastro", Path: "/cadastro", Policy: GuestOnly},
		{Name: "livros", Path: "/livros", Policy: RequiresAuth},
		{Name: "autores", Path: "/autores", Policy: RequiresAuth},
		{Name: "generos", Path: "/generos", Policy: RequiresAuth},
		{Path: CatchAll, Redirect: DefaultLandingPath},
	}
}

// Lookup returns the route called name.
func (r *Routes) Lookup(name string) (Route, bool) {
	route, ok := r.byName[name]
	return route, ok
}

// Match returns the route for path, falling back to the catch-all route.
func (r *Routes) Match(path string) (Route, bool) {
	if route, ok := r.byPath[path]; ok {
		return route, true
	}
	if r.catchAll != nil {
		return *r.catchAll, true
	}
	return Route{}, false
}

// Resolve parses rawPath (path, optional query and fragment) and follows
// redirect routes to the Location that would be displayed.
func (r *Routes) Resolve(rawPath string) (Location, error) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return Location{}, fmt.Errorf("parse %q: %w", rawPath, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	rawQuery := u.RawQuery

	for range maxRouteRedirects {
		route, ok := r.Match(path)
		if !ok {
			return Location{}, fmt.Errorf("%w: %q", ErrNoRoute, path)
		}

		if route.Redirect == "" {
			return r.location(route, path, rawQuery, u.EscapedFragment())
		}

		next, err := url.Parse(route.Redirect)
		if err != nil {
			return Location{}, fmt.Errorf("parse redirect %q: %w", route.Redirect, err)
		}
		path = next.Path
		if next.RawQuery != "" {
			rawQuery = next.RawQuery
		}
	}

	return Location{}, fmt.Errorf("%w: %q", ErrRouteRedirectLoop, rawPath)
}

func (r *Routes) location(route Route, path, rawQuery, fragment string) (Location, error) {
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Location{}, fmt.Errorf("parse query of %q: %w", path, err)
	}

	fullPath := path
	if rawQuery != "" {
		fullPath += "?" + rawQuery
	}
	if fragment != "" {
		fullPath += "#" + fragment
	}

	return Location{
		Name:     route.Name,
		Path:     path,
		FullPath: fullPath,
		Query:    query,
		Policy:   route.Policy,
	}, nil
}

// Href renders t as a path with query string.
func (r *Routes) Href(t Target) (string, error) {
	path := t.Path
	if t.Name != "" {
		route, ok := r.byName[t.Name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownRoute, t.Name)
		}
		path = route.Path
	}
	if path == "" {
		path = "/"
	}

	if len(t.Query) == 0 {
		return path, nil
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + t.Query.Encode(), nil
}

// isLocalPath reports whether p stays inside the application.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") &&
		!strings.HasPrefix(p, "//") &&
		!strings.HasPrefix(p, `/\`)
}
