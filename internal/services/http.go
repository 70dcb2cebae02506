package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/time/rate"
)

const (
	maxRetryAfter = 30 * time.Second
	maxBackoff    = 8 * time.Second
	baseBackoff   = 500 * time.Millisecond
)

var errNotAuthenticated = fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)

// apiClient sends JSON requests through an authenticated [http.Client], pacing them with a
// [rate.Limiter] and retrying throttled responses.
type apiClient struct {
	service    string
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *log.Logger
	sleep      func(context.Context, time.Duration) error
}

func newAPIClient(service string, o options) *apiClient {
	return &apiClient{
		service:    service,
		baseURL:    o.baseURL,
		limiter:    o.limiter,
		maxRetries: o.maxRetries,
		logger:     o.logger.With("service", service),
		sleep:      sleepContext,
	}
}

// do performs method on path and decodes a 2xx JSON body into result when result is non-nil.
// Non-2xx responses are returned as [*APIError].
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if c.http == nil {
		return errNotAuthenticated
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("request", "method", method, "path", path, "attempt", attempt+1)
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s request failed: %w", c.service, err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			defer resp.Body.Close()
			if result == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode %s response: %w", c.service, err)
			}
			return nil
		}

		apiErr := decodeAPIError(c.service, resp)
		resp.Body.Close()

		wait, retry := c.retryAfter(method, resp, attempt)
		if !retry {
			return apiErr
		}
		c.logger.Warn("retrying request", "path", path, "status", resp.StatusCode, "wait", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// retryAfter reports whether a failed response should be retried and how long to wait.
//
// 429 is retried for every method. 5xx is retried only for GET since a POST may have been applied.
func (c *apiClient) retryAfter(method string, resp *http.Response, attempt int) (time.Duration, bool) {
	if attempt >= c.maxRetries {
		return 0, false
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
	case resp.StatusCode >= 500 && method == http.MethodGet:
	default:
		return 0, false
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, maxRetryAfter), true
	}
	return min(baseBackoff<<attempt, maxBackoff), true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// APIError is a non-2xx response from Spotify or YouTube.
type APIError struct {
	Service string
	Status  int
	Reason  string // Google error reason, e.g. quotaExceeded
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s API error (status %d, %s): %s", e.Service, e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.Status, e.Message)
}

// Unwrap maps the error to a shared sentinel.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case http.StatusNotFound:
		return shared.ErrPlaylistNotFound
	default:
		return shared.ErrAPIRequest
	}
}

// decodeAPIError reads the body of a failed response.
//
// Spotify sends {"error": {"status", "message"}}; Google adds "errors": [{"reason", "message"}].
func decodeAPIError(service string, resp *http.Response) *APIError {
	apiErr := &APIError{Service: service, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var detail struct {
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err != nil {
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
			apiErr.Message = s
		}
		return apiErr
	}

	if detail.Message != "" {
		apiErr.Message = detail.Message
	}
	if len(detail.Errors) > 0 {
		apiErr.Reason = detail.Errors[0].Reason
		if apiErr.Message == "" {
			apiErr.Message = detail.Errors[0].Message
		}
	}
	return apiErr
}
