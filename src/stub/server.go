package stub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"laundry-client/src/events"
)

// Server runs the development stub as a standalone HTTP server.
type Server struct {
	http      *http.Server
	publisher *events.Publisher
	State     *State
}

// NewServer assembles the stub. amqpURL may be empty, in which case no
// status events are published.
func NewServer(addr, amqpURL, exchange string) (*Server, error) {
	state := NewState()

	var publisher *events.Publisher
	if amqpURL != "" {
		p, err := events.NewPublisher(amqpURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		publisher = p
	}

	router := NewRouter(NewHandlers(state, publisher, exchange), state)
	return &Server{
		http:      &http.Server{Addr: addr, Handler: router},
		publisher: publisher,
		State:     state,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	go func() {
		slog.Info("Starting laundry API stub", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- fmt.Errorf("failed to start server: %w", err)
			return
		}
		serverDone <- nil
	}()

	select {
	case err := <-serverDone:
		return err
	case <-quit:
	}

	slog.Info("Shutting down stub...")
	if s.publisher != nil {
		s.publisher.Close()
	}
	if err := s.http.Shutdown(context.Background()); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}
	slog.Info("Server exited gracefully")
	return nil
}
