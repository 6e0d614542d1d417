package core

import "fmt"

// Policy is a route's access policy. It is fixed when the route table is built.
type Policy int

const (
	// Public routes are reachable with or without a session.
	Public Policy = iota
	// RequiresAuth routes need a valid token.
	RequiresAuth
	// GuestOnly routes only make sense without a session (login, registration).
	GuestOnly
)

var policyNames = map[Policy]string{
	Public:       "public",
	RequiresAuth: "requires-auth",
	GuestOnly:    "guest-only",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses the name returned by Policy.String.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return Public, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// PolicyFromMeta converts route meta flags to a Policy.
func PolicyFromMeta(requiresAuth, guestOnly bool) (Policy, error) {
	switch {
	case requiresAuth && guestOnly:
		return Public, ErrConflictingPolicy
	case requiresAuth:
		return RequiresAuth, nil
	case guestOnly:
		return GuestOnly, nil
	default:
		return Public, nil
	}
}
