package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/cifsgate/internal/logger"
	"github.com/marmos91/cifsgate/pkg/server"
)

// Server is the admin HTTP server. It is read-only and unauthenticated, so
// it binds to loopback unless configured otherwise.
type Server struct {
	name         string
	server       *http.Server
	config       Config
	mu           sync.Mutex
	addr         net.Addr
	shutdownOnce sync.Once
}

// NewServer creates the admin API server in a stopped state. metrics may
// be nil.
func NewServer(config Config, srv *server.Server, metrics *Metrics) *Server {
	return newHTTPServer("API", config, NewRouter(srv, metrics))
}

func newHTTPServer(name string, config Config, handler http.Handler) *Server {
	config.applyDefaults()
	return &Server{
		name:   name,
		config: config,
		server: &http.Server{
			Addr:              config.address(),
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
		},
	}
}

// Start binds the listener and serves until ctx is cancelled, then shuts
// down gracefully within 5 seconds. A bind failure is returned at once.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("%s server failed to listen on %s: %w", s.name, s.server.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info(s.name+" server listening", logger.KeyAddress, ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info(s.name + " server shutdown signal received")
		// ctx is already cancelled; shutdown gets its own deadline
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("%s server failed: %w", s.name, err)
	}
}

// Stop shuts the server down. It is safe to call more than once and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug(s.name + " server shutdown initiated")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("%s server shutdown error: %w", s.name, err)
			logger.Error(s.name+" server shutdown error", logger.KeyError, err)
		} else {
			logger.Info(s.name + " server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the bound address once Start has listened, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.config.Port
}
