// Package api serves the parcel catalog to the tour and the admin dashboard.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	ws "github.com/gorilla/websocket"
	"github.com/lanube360/mirador-lotes/internal/catalog"
	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/lifecycle"
)

const defaultShutdownTimeout = 10 * time.Second

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	catalog  *catalog.Service
	log      *slog.Logger
	cfg      config.HTTPConfig
	upgrader ws.Upgrader

	state    lifecycle.Machine
	httpSrv  *http.Server
	done     chan struct{}
	doneOnce sync.Once
	streams  sync.WaitGroup
}

// NewServer creates and configures the HTTP server.
func NewServer(cat *catalog.Service, log *slog.Logger, cfg config.HTTPConfig) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		catalog: cat,
		log:     log,
		cfg:     cfg,
		upgrader: ws.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthcheck", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/project", s.handleProject)

		r.Get("/parcels", s.handleListParcels)
		r.Get("/parcels/stats", s.handleStats)
		r.Get("/parcels/stream", s.handleStream)
		r.Get("/parcels/{id}", s.handleGetParcel)
		r.Patch("/parcels/{id}", s.handleUpdateParcel)

		r.Get("/scenes/{scene}/spots", s.handleScenePins)

		r.Post("/contact", s.handleContact)
	})

	s.router = r
}

// State reports where the server is in its lifecycle.
func (s *Server) State() lifecycle.State {
	return s.state.State()
}

// ListenAndServe listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. A Server serves once;
// a second call fails with lifecycle.ErrInvalidTransition.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.state.Begin(); err != nil {
		ln.Close()
		return fmt.Errorf("server already started: %w", err)
	}
	s.httpSrv = &http.Server{
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	if err := s.state.Complete(nil); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpSrv.Serve(ln)
	}()
	s.log.Info("API server listening", "addr", ln.Addr().String(), "project", s.catalog.ProjectSlug())

	select {
	case err := <-serveErr:
		s.state.Teardown()
		s.closeStreams()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown stops accepting requests, closes websocket streams and waits for in-flight
// requests up to the configured shutdown timeout. It is safe to call more than once.
func (s *Server) Shutdown() error {
	s.closeStreams()
	if !s.state.Teardown() {
		return nil
	}
	s.log.Info("Shutting down API server")

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.streams.Wait()
	if err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) closeStreams() {
	s.doneOnce.Do(func() { close(s.done) })
}
