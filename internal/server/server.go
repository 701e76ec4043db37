package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ternarybob/arbor"
)

// Server serves the fixture Employee application: the list page, the
// create/update form and a small JSON API
type Server struct {
	logger   arbor.ILogger
	store    *Store
	router   chi.Router
	server   *http.Server
	listener net.Listener
}

// New creates a server for addr ("host:port", port 0 picks a free port)
func New(addr string, logger arbor.ILogger, store *Store) *Server {
	s := &Server{
		logger: logger,
		store:  store,
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routed handler for in-process tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the address and returns the base URL the app is reachable on
func (s *Server) Listen() (string, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	return "http://" + ln.Addr().String(), nil
}

// Serve blocks serving on the bound listener until Shutdown
func (s *Server) Serve() error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("address", s.listener.Addr().String()).
		Msg("Fixture Employee app listening")

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down fixture server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("Fixture server stopped")
	return nil
}
