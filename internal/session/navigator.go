package session

import "sync"

// Navigator is how the Gate observes and changes the current route
type Navigator interface {
	Current() string
	Replace(route string)
}

// RouteNavigator is an in-memory Navigator. It records every route it was
// sent to.
type RouteNavigator struct {
	mu      sync.Mutex
	current string
	history []string
}

// NewRouteNavigator starts at route
func NewRouteNavigator(route string) *RouteNavigator {
	route = NormalizePath(route)
	return &RouteNavigator{current: route, history: []string{route}}
}

// Current returns the current route
func (n *RouteNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Replace moves to route. Replacing with the current route is a no-op.
func (n *RouteNavigator) Replace(route string) {
	route = NormalizePath(route)
	n.mu.Lock()
	defer n.mu.Unlock()
	if route == n.current {
		return
	}
	n.current = route
	n.history = append(n.history, route)
}

// History returns every route visited, oldest first
func (n *RouteNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
