package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

type mockTokenSource struct {
	token *oauth2.Token
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, nil
}

func testOptions(serverURL string) []Option {
	return []Option{
		WithBaseURL(serverURL),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback when token changes", func(t *testing.T) {
		var captured []string
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}
		source := &refreshableTokenSource{
			source:   mock,
			callback: func(tok *oauth2.Token) { captured = append(captured, tok.AccessToken) },
		}

		source.Token()
		source.Token()
		mock.token = &oauth2.Token{AccessToken: "token2"}
		tok, err := source.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(captured) != 2 || captured[0] != "token1" || captured[1] != "token2" {
			t.Errorf("unexpected callback calls %v", captured)
		}
		if tok.AccessToken != "token2" {
			t.Errorf("expected new token, got %s", tok.AccessToken)
		}
	})

	t.Run("skips callback for the starting token", func(t *testing.T) {
		calls := 0
		source := &refreshableTokenSource{
			source:   &mockTokenSource{token: &oauth2.Token{AccessToken: "stored"}},
			callback: func(*oauth2.Token) { calls++ },
			last:     "stored",
		}
		source.Token()
		if calls != 0 {
			t.Errorf("expected no callback, got %d", calls)
		}
	})

	t.Run("nil callback", func(t *testing.T) {
		source := &refreshableTokenSource{source: &mockTokenSource{token: &oauth2.Token{AccessToken: "x"}}}
		if _, err := source.Token(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestAPIClient(t *testing.T) {
	ctx := context.Background()

	newClient := func(serverURL string, opts ...Option) *apiClient {
		c := newAPIClient("test", newOptions(serverURL, rate.Inf, opts))
		c.http = http.DefaultClient
		c.sleep = func(context.Context, time.Duration) error { return nil }
		return c
	}

	t.Run("not authenticated", func(t *testing.T) {
		c := newAPIClient("test", newOptions("http://unused", rate.Inf, nil))
		err := c.do(ctx, http.MethodGet, "/x", nil, nil, nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("retries 429 honouring Retry-After", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
		}))
		defer server.Close()

		c := newClient(server.URL)
		var waits []time.Duration
		c.sleep = func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}

		var out map[string]string
		if err := c.do(ctx, http.MethodPost, "/x", nil, map[string]int{"a": 1}, &out); err != nil {
			t.Fatalf("expected success after retry, got %v", err)
		}
		if calls.Load() != 2 || out["ok"] != "yes" {
			t.Errorf("expected 2 calls and decoded body, got %d %v", calls.Load(), out)
		}
		if len(waits) != 1 || waits[0] != 2*time.Second {
			t.Errorf("expected one 2s wait, got %v", waits)
		}
	})

	t.Run("does not retry POST on 5xx", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		err := newClient(server.URL).do(ctx, http.MethodPost, "/x", nil, struct{}{}, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
			t.Fatalf("expected 502 APIError, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected a single call, got %d", calls.Load())
		}
	})

	t.Run("gives up after max retries on GET", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := newClient(server.URL, WithMaxRetries(2))
		if err := c.do(ctx, http.MethodGet, "/x", nil, nil, nil); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("decodes google error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error": map[string]any{
					"code":    403,
					"message": "The request cannot be completed because you have exceeded your quota.",
					"errors":  []map[string]string{{"reason": "quotaExceeded", "domain": "youtube.quota"}},
					"status":  "PERMISSION_DENIED",
				},
			})
		}))
		defer server.Close()

		err := newClient(server.URL).do(ctx, http.MethodGet, "/x", nil, nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Reason != "quotaExceeded" || !strings.Contains(apiErr.Message, "quota") {
			t.Errorf("unexpected error fields %+v", apiErr)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected APIError to unwrap to ErrAPIRequest")
		}
	})

	t.Run("decodes spotify error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"status": 404, "message": "Resource not found"}})
		}))
		defer server.Close()

		err := newClient(server.URL).do(ctx, http.MethodGet, "/x", nil, nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Resource not found" {
			t.Fatalf("unexpected error %v", err)
		}
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Error("expected 404 to unwrap to ErrPlaylistNotFound")
		}
	})

	t.Run("non JSON error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, "nope")
		}))
		defer server.Close()

		err := newClient(server.URL).do(ctx, http.MethodGet, "/x", nil, nil, nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected 401 to unwrap to ErrNotAuthenticated, got %v", err)
		}
	})
}
