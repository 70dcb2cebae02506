// Package server runs the local HTTP endpoint that receives OAuth redirects during `sp2yt auth`.
//
// # Routing
//
// [Router] maps exact redirect paths to handlers and only admits GET and HEAD. [Middleware] is
// composed with [Chain], first argument outermost; [Logging] and [Recover] are the two the CLI uses.
//
// # Callback handling
//
// [OAuthHandler] checks the state parameter, surfaces provider errors such as access_denied and
// trades the code for a token through an [Exchanger]. It accepts a single redirect and publishes
// exactly one [OAuthResult].
//
// [CallbackServer] binds the configured address (127.0.0.1:3000 by default) before the browser is
// opened, waits for that result or a timeout and then shuts down.
package server
