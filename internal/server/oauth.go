package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

var (
	errStateMismatch = errors.New("invalid state parameter")
	errMissingCode   = errors.New("redirect carried no authorization code")
)

// Exchanger trades an authorization code for a token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult is the outcome of one authorization redirect: a token or an error.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler answers the redirect URI of a single authorization attempt.
//
// The first request wins. Later requests get 400 and never reach the [Exchanger], so a replayed
// redirect cannot trade the same code twice.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	service   string
	hit       atomic.Bool
	once      sync.Once
	results   chan OAuthResult
}

// NewOAuthHandler returns a handler for service's redirect at path. state must be the same random
// value sent in the authorization URL.
func NewOAuthHandler(exchanger Exchanger, service, path, state string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		service:   service,
		results:   make(chan OAuthResult, 1),
	}
}

// Routes implements [Routed].
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, errStateMismatch)
		return
	}
	if reason := q.Get("error"); reason != "" {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("authorization denied: %s %s", reason, q.Get("error_description")))
		return
	}
	code := q.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, errMissingCode)
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err))
		return
	}

	h.Send(OAuthResult{Token: token})
	h.render(w, http.StatusOK, page{Service: h.service, OK: true})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.Send(OAuthResult{err: err})
	h.render(w, status, page{Service: h.service, Detail: err.Error()})
}

func (h *OAuthHandler) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = resultPage.Execute(w, p)
}

// Send delivers result to [OAuthHandler.Result]. Only the first call has any effect.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

type page struct {
	Service string
	OK      bool
	Detail  string
}

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>sp2yt</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .card { text-align: center; background: white; padding: 2rem;
                border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .ok { color: #04B575; } .fail { color: #FF0000; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
    {{- if .OK}}
        <h1 class="ok">✓ {{.Service}} Authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    {{- else}}
        <h1 class="fail">✗ {{.Service}} Authorization Failed</h1>
        <p>{{.Detail}}</p>
    {{- end}}
    </div>
</body>
</html>
`))
