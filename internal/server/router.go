package server

import (
	"net/http"
	"slices"
	"strings"
	"sync"
)

var readMethods = []string{http.MethodGet, http.MethodHead}

// Router dispatches exact redirect paths. OAuth providers only ever redirect with GET, so other
// methods get 405 and unknown paths 404. Middleware wraps every request, including rejected ones.
type Router struct {
	mu         sync.RWMutex
	routes     map[string]http.Handler
	middleware []Middleware
}

// NewRouter returns an empty router using mw on every request.
func NewRouter(mw ...Middleware) *Router {
	return &Router{routes: map[string]http.Handler{}, middleware: mw}
}

// Get registers h for path. A later registration for the same path replaces the earlier one.
func (r *Router) Get(path string, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[path] = h
}

// Mount registers h for every path it reports.
func (r *Router) Mount(h Routed) {
	for _, p := range h.Routes() {
		r.Get(p, h)
	}
}

// Paths lists registered paths in sorted order.
func (r *Router) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	Chain(http.HandlerFunc(r.dispatch), r.middleware...).ServeHTTP(w, req)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	h, ok := r.routes[req.URL.Path]
	r.mu.RUnlock()

	switch {
	case !ok:
		http.NotFound(w, req)
	case !slices.Contains(readMethods, req.Method):
		w.Header().Set("Allow", strings.Join(readMethods, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		h.ServeHTTP(w, req)
	}
}
