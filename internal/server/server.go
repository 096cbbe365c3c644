// Package server owns the HTTP listener lifecycle: startup, serving, and
// graceful shutdown within a bounded grace period.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"membridge/internal/infra/config"
)

// Server wraps the HTTP server.
type Server struct {
	cfg  config.Config
	http *http.Server
}

// New creates a Server for the given handler. The run context passed to
// Run becomes the base context of every accepted connection, which is how
// SSE loops learn about shutdown.
func New(cfg config.Config, handler http.Handler) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:        cfg.Addr(),
			Handler:     handler,
			ReadTimeout: 15 * time.Second,
			// No write timeout: the SSE channel is long-lived by design.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully: stop
// accepting, let in-flight handlers finish within the grace period, then
// force-close the transport. A failure to bind the address is fatal and
// returned immediately.
func (s *Server) Run(ctx context.Context) error {
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		grace, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
		defer cancel()

		if err := s.http.Shutdown(grace); err != nil {
			// Grace expired with handlers still running; release the
			// transport anyway.
			s.http.Close()
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
