package access

import (
	"fmt"
	"sort"
	"strings"
)

// Route describes a navigable path. Path may use "{any}" for one segment and
// a trailing "{any...}" for any remainder.
type Route struct {
	Path              string   `json:"path"`
	RequiredAuthority []string `json:"authority,omitempty"`
	SuperAdminOnly    bool     `json:"super_admin_only,omitempty"`
}

type Routes []Route

// Table matches request paths to routes, most specific pattern first.
type Table struct {
	routes []compiledRoute
}

type compiledRoute struct {
	route    Route
	segments routePath
	openEnd  bool
}

func NewTable(routes Routes) (t Table, err error) {

	for _, r := range routes {
		var cr compiledRoute
		cr, err = compileRoute(r)
		if err != nil {
			return
		}
		t.routes = append(t.routes, cr)
	}

	sort.SliceStable(t.routes, func(i, j int) bool {
		return t.routes[i].moreSpecific(t.routes[j])
	})

	return
}

func compileRoute(r Route) (res compiledRoute, err error) {

	if !strings.HasPrefix(r.Path, "/") {
		err = fmt.Errorf("invalid route path '%s': must start with '/'", r.Path)
		return
	}

	path := strings.Trim(r.Path, "/")
	segments := strings.Split(path, "/")

	openEnd := segments[len(segments)-1] == "{any...}"
	if openEnd {
		segments = segments[:len(segments)-1]
	}

	rp := make(routePath, len(segments))

	for i, segment := range segments {
		switch segment {
		case "{any}":
			rp[i] = segmentAny{}
		case "{any...}":
			err = fmt.Errorf("invalid route path '%s': '{any...}' must be the last segment", r.Path)
			return
		default:
			if strings.ContainsAny(segment, "{}") {
				err = fmt.Errorf("invalid route path '%s': placeholders must span a whole segment", r.Path)
				return
			}
			rp[i] = segmentFixed(segment)
		}
	}

	res = compiledRoute{r, rp, openEnd}
	return
}

// Match returns the route whose pattern matches path.
func (t Table) Match(path string) (Route, bool) {

	path, _, _ = strings.Cut(path, "?")
	segments := strings.Split(strings.Trim(path, "/"), "/")

	for _, cr := range t.routes {
		if cr.match(segments) {
			return cr.route, true
		}
	}

	return Route{}, false
}

// Resolve is Match with a fallback: unknown paths get a route without
// required authority, still subject to tenant and subscription admission.
func (t Table) Resolve(path string) Route {
	if r, ok := t.Match(path); ok {
		return r
	}
	path, _, _ = strings.Cut(path, "?")
	return Route{Path: path}
}

func (t Table) Len() int {
	return len(t.routes)
}

func (cr compiledRoute) match(segments []string) bool {
	if cr.openEnd {
		if len(cr.segments) > len(segments) {
			return false
		}
		return cr.segments.match(segments[:len(cr.segments)])
	}
	return cr.segments.match(segments)
}

// moreSpecific orders fixed segments before wildcards, longer patterns before
// shorter ones and exact patterns before open ended ones.
func (cr compiledRoute) moreSpecific(other compiledRoute) bool {

	n := min(len(cr.segments), len(other.segments))
	for i := range n {
		a, b := cr.segments[i].weight(), other.segments[i].weight()
		if a != b {
			return a > b
		}
	}

	if len(cr.segments) != len(other.segments) {
		return len(cr.segments) > len(other.segments)
	}

	return !cr.openEnd && other.openEnd
}

type routePath []routeSegment

func (p routePath) match(segments []string) bool {
	if len(p) != len(segments) {
		return false
	}
	for i := range p {
		if !p[i].match(segments[i]) {
			return false
		}
	}
	return true
}

type routeSegment interface {
	match(segment string) bool
	weight() int
}

type segmentFixed string

func (s segmentFixed) match(segment string) bool {
	return string(s) == segment
}

func (s segmentFixed) weight() int {
	return 2
}

type segmentAny struct{}

func (s segmentAny) match(segment string) bool {
	return true
}

func (s segmentAny) weight() int {
	return 1
}
