package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
)

type mockExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (m *mockExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.codes = append(m.codes, code)
	if m.err != nil {
		return nil, m.err
	}
	return m.token, nil
}

func TestRouter(t *testing.T) {
	pong := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})

	t.Run("dispatch", func(t *testing.T) {
		router := NewRouter()
		router.Get("/ping", pong)

		tests := []struct {
			method, path string
			want         int
		}{
			{http.MethodGet, "/ping", http.StatusOK},
			{http.MethodHead, "/ping", http.StatusOK},
			{http.MethodPost, "/ping", http.StatusMethodNotAllowed},
			{http.MethodGet, "/pong", http.StatusNotFound},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, rec.Code)
			}
			if tt.want == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != "GET, HEAD" {
				t.Errorf("expected Allow header, got %q", rec.Header().Get("Allow"))
			}
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewRouter(mw("first"), mw("second"))
		router.Get("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order: %v", order)
		}

		order = nil
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected middleware to see unknown paths, got %v", order)
		}
	})

	t.Run("mount", func(t *testing.T) {
		router := NewRouter()
		router.Mount(NewOAuthHandler(&mockExchanger{}, "YouTube", "/callback/youtube", "s1"))
		router.Get("/callback/spotify", pong)

		if got := strings.Join(router.Paths(), ","); got != "/callback/spotify,/callback/youtube" {
			t.Errorf("unexpected paths %q", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback/spotify", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback/spotify") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log, got %q", out)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		h := Recover(log.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		exchanger *mockExchanger
		wantCode  int
		wantToken bool
	}{
		{
			name:      "success",
			query:     "state=s1&code=abc",
			exchanger: &mockExchanger{token: &oauth2.Token{AccessToken: "tok"}},
			wantCode:  http.StatusOK,
			wantToken: true,
		},
		{
			name:      "state mismatch",
			query:     "state=other&code=abc",
			exchanger: &mockExchanger{token: &oauth2.Token{AccessToken: "tok"}},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "user denied",
			query:     "state=s1&error=access_denied",
			exchanger: &mockExchanger{},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "missing code",
			query:     "state=s1",
			exchanger: &mockExchanger{},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "exchange fails",
			query:     "state=s1&code=abc",
			exchanger: &mockExchanger{err: errors.New("invalid_grant")},
			wantCode:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOAuthHandler(tt.exchanger, "Spotify", "/callback/spotify", "s1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback/spotify?"+tt.query, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			result := <-h.Result()
			if tt.wantToken {
				if result.Error() != nil || result.Token == nil || result.Token.AccessToken != "tok" {
					t.Errorf("expected token, got %+v (err %v)", result.Token, result.Error())
				}
				if !strings.Contains(rec.Body.String(), "Spotify Authorized") {
					t.Error("expected success page naming the service")
				}
			} else {
				if result.Error() == nil {
					t.Error("expected error result")
				}
				if !strings.Contains(rec.Body.String(), "Spotify Authorization Failed") {
					t.Errorf("expected failure page, got %q", rec.Body.String())
				}
			}
		})
	}

	t.Run("second callback rejected", func(t *testing.T) {
		ex := &mockExchanger{token: &oauth2.Token{AccessToken: "tok"}}
		h := NewOAuthHandler(ex, "YouTube", "/callback/youtube", "s1")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback/youtube?state=s1&code=a", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback/youtube?state=s1&code=b", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(ex.codes) != 1 {
			t.Errorf("expected one exchange, got %d", len(ex.codes))
		}
	})

	t.Run("routes", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{}, "YouTube", "/callback/youtube", "s1")
		if r := h.Routes(); len(r) != 1 || r[0] != "/callback/youtube" {
			t.Errorf("unexpected routes %v", r)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("delivers token", func(t *testing.T) {
		ex := &mockExchanger{token: &oauth2.Token{AccessToken: "tok"}}
		h := NewOAuthHandler(ex, "Spotify", "/callback/spotify", "s1")
		srv, err := StartCallbackServer("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("failed to start server: %v", err)
		}

		go func() {
			resp, err := http.Get(fmt.Sprintf("http://%s/callback/spotify?state=s1&code=abc", srv.Addr()))
			if err == nil {
				resp.Body.Close()
			}
		}()

		tok, err := srv.Wait(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "tok" {
			t.Errorf("expected tok, got %q", tok.AccessToken)
		}
	})

	t.Run("times out", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{}, "Spotify", "/callback/spotify", "s1")
		srv, err := StartCallbackServer("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("failed to start server: %v", err)
		}
		_, err = srv.Wait(context.Background(), 10*time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("reports failed authorization", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{}, "Spotify", "/callback/spotify", "s1")
		srv, err := StartCallbackServer("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("failed to start server: %v", err)
		}
		h.Send(OAuthResult{err: errors.New("denied")})
		_, err = srv.Wait(context.Background(), time.Second)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("busy port", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{}, "Spotify", "/callback/spotify", "s1")
		first, err := StartCallbackServer("127.0.0.1:0", h, nil)
		if err != nil {
			t.Fatalf("failed to start server: %v", err)
		}
		defer first.shutdown()

		if _, err := StartCallbackServer(first.Addr(), h, nil); err == nil {
			t.Error("expected listen error on busy port")
		}
	})
}
