package widget

import (
	"strings"

	"github.com/harunnryd/eventcorner/internal/auth"
)

// Visibility decides whether the widget exists at all for a given visitor and
// route.
type Visibility struct {
	prefixes []string
}

// NewVisibility normalises the configured dashboard prefixes. Blank entries
// are dropped and trailing slashes trimmed.
func NewVisibility(prefixes []string) Visibility {
	normalised := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		normalised = append(normalised, p)
	}
	return Visibility{prefixes: normalised}
}

func (v Visibility) Prefixes() []string {
	return append([]string(nil), v.prefixes...)
}

// Visible reports whether the widget should render. Both an authenticated
// session and a dashboard route are required.
func (v Visibility) Visible(ac auth.Context, route string) bool {
	if !ac.Authenticated() {
		return false
	}
	return v.matchRoute(route)
}

func (v Visibility) matchRoute(route string) bool {
	route = cleanRoute(route)
	for _, prefix := range v.prefixes {
		if route == prefix || strings.HasPrefix(route, prefix+"/") {
			return true
		}
	}
	return false
}

// cleanRoute drops query, fragment and trailing slash.
func cleanRoute(route string) string {
	route = strings.TrimSpace(route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	return route
}
