// package server contains the router, middleware and OAuth callback handling used by the CLI
package server

import "net/http"

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that the first middleware is outermost.
func Chain(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Routed is a handler that knows which paths it answers.
type Routed interface {
	http.Handler
	Routes() []string
}
