package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"streamvault/internal/logging"
	"streamvault/internal/metrics"
	"streamvault/internal/registry"
	"streamvault/internal/services"
)

// Backend provides the operations exposed over HTTP and IPC.
type Backend interface {
	Status(ctx context.Context) DaemonStatus
	ListStreamers(ctx context.Context) ([]Streamer, error)
	AddStreamer(ctx context.Context, name string) (Streamer, error)
	RemoveStreamer(ctx context.Context, name string) (RemoveStreamerResponse, error)
}

// Server serves the HTTP API.
type Server struct {
	bind    string
	backend Backend
	metrics *metrics.Metrics
	gauges  func()
	logger  *slog.Logger
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics mounts /metrics and records request counters.
func WithMetrics(m *metrics.Metrics, updateGauges func()) ServerOption {
	return func(s *Server) {
		s.metrics = m
		s.gauges = updateGauges
	}
}

// NewServer builds the router. Start binds the listener.
func NewServer(bind string, backend Backend, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		bind:    strings.TrimSpace(bind),
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "api-server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(s.logger))
	if s.metrics != nil {
		r.Use(metrics.RequestMiddleware(s.metrics))
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler(s.gauges))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Route("/streamers", func(r chi.Router) {
			r.Get("/", s.handleListStreamers)
			r.Post("/", s.handleAddStreamer)
			r.Delete("/{name}", s.handleRemoveStreamer)
		})
	})
	return r
}

// Handler returns the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves until ctx ends or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "api_serve_failed"),
			)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.backend.Status(r.Context()))
}

func (s *Server) handleListStreamers(w http.ResponseWriter, r *http.Request) {
	streamers, err := s.backend.ListStreamers(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if streamers == nil {
		streamers = []Streamer{}
	}
	s.writeJSON(w, http.StatusOK, StreamerListResponse{Streamers: streamers})
}

func (s *Server) handleAddStreamer(w http.ResponseWriter, r *http.Request) {
	var req AddStreamerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	streamer, err := s.backend.AddStreamer(r.Context(), req.Name)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, StreamerResponse{Streamer: streamer})
}

func (s *Server) handleRemoveStreamer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := s.backend.RemoveStreamer(r.Context(), name)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if !res.Removed {
		s.writeJSON(w, http.StatusNotFound, res)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// StatusForError maps error markers to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("api request failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "api_request_failed"),
			logging.Int("status", status),
		)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
