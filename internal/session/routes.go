package session

import (
	"path"
	"strings"
)

// Route names
const (
	LoginRoute   = "/login"
	LandingRoute = "/dashboard"
)

// NormalizePath cleans a request path so "/login/" and "/login" classify the
// same way. Query strings and fragments are dropped.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsPublic reports whether route can be visited without a session. Only the
// login route is public.
func IsPublic(route string) bool {
	return NormalizePath(route) == LoginRoute
}

// Decide returns the route to redirect to for state at route, or "" when no
// redirect is needed. Nothing is decided while a check is running.
func Decide(state State, route string) string {
	if state.IsLoading {
		return ""
	}
	onLogin := IsPublic(route)
	switch {
	case !state.IsAuthenticated && !onLogin:
		return LoginRoute
	case state.IsAuthenticated && onLogin:
		return LandingRoute
	}
	return ""
}
