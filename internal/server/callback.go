package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
)

// CallbackServer is a short-lived HTTP server that receives one OAuth redirect.
type CallbackServer struct {
	handler *OAuthHandler
	srv     *http.Server
	ln      net.Listener
	errs    chan error
	logger  *log.Logger
}

// StartCallbackServer listens on addr and serves handler behind the logging and recovery middleware.
// Listening happens before it returns so a busy port fails immediately.
func StartCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	router := NewRouter(Recover(logger), Logging(logger))
	router.Mount(handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &CallbackServer{
		handler: handler,
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		ln:      ln,
		errs:    make(chan error, 1),
		logger:  logger,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
	logger.Info("callback server started", "addr", ln.Addr().String(), "routes", router.Paths())
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *CallbackServer) Addr() string {
	return s.ln.Addr().String()
}

// Wait blocks until the callback delivers a token, the server fails, timeout elapses or ctx ends.
// The server is shut down before Wait returns.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	defer s.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-s.handler.Result():
	case err := <-s.errs:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

func (s *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
}
