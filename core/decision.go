package core

import (
	"fmt"
	"net/url"
)

// Location is a resolved navigation target.
type Location struct {
	// Name of the matched route; empty for unnamed routes.
	Name string
	// Path without query.
	Path string
	// FullPath is Path plus query and fragment, as the user asked for it.
	FullPath string
	Query    url.Values
	Policy   Policy
}

// Target is where a redirect points: a named route or a path, plus query
// parameters. Name wins when both are set.
type Target struct {
	Name  string
	Path  string
	Query url.Values
}

// Action is the kind of Decision.
type Action int

const (
	// Allow lets the navigation proceed unmodified.
	Allow Action = iota
	// RedirectToLogin sends the user to the login route.
	RedirectToLogin
	// RedirectAway sends an authenticated user off a guest-only route.
	RedirectAway
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectAway:
		return "redirect-away"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is the outcome of one guard evaluation. Target is only meaningful
// for redirects.
type Decision struct {
	Action Action
	Target Target
}

// IsRedirect reports whether d redirects.
func (d Decision) IsRedirect() bool {
	return d.Action != Allow
}
