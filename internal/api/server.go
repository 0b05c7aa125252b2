package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/randalmurphal/taskboard/internal/board"
	"github.com/randalmurphal/taskboard/internal/events"
	"github.com/randalmurphal/taskboard/internal/order"
	"github.com/randalmurphal/taskboard/internal/storage"
)

// Server is the task board API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	logger *slog.Logger

	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration

	backend       storage.Backend
	publisher     events.Publisher
	ownsPublisher bool
	coordinator   *board.Coordinator

	boards    *boardCache
	cacheSub  <-chan events.Event
	wsHandler *WSHandler
}

// Config holds server configuration.
type Config struct {
	Addr    string
	Logger  *slog.Logger
	Backend storage.Backend

	// Publisher fans out committed moves to websockets and the board cache.
	// Defaults to an in-memory publisher that also persists to Backend.
	Publisher events.Publisher

	Order           order.Options
	BoardCacheTTL   time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// New creates a new API server.
func New(cfg Config) (*Server, error) {
	if cfg.Backend == nil {
		return nil, errors.New("api: backend is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pub, ownsPublisher := cfg.Publisher, false
	if pub == nil {
		pub, ownsPublisher = events.NewPersistentPublisher(cfg.Backend, logger), true
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	coord, err := board.NewCoordinator(board.Config{
		Tasks:    cfg.Backend,
		Projects: cfg.Backend,
		Events:   pub,
		Order:    cfg.Order,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	s := &Server{
		addr:            cfg.Addr,
		mux:             http.NewServeMux(),
		logger:          logger,
		readTimeout:     cfg.ReadTimeout,
		writeTimeout:    cfg.WriteTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
		backend:         cfg.Backend,
		publisher:       pub,
		ownsPublisher:   ownsPublisher,
		coordinator:     coord,
	}
	s.boards = newBoardCache(coord.Board, cfg.BoardCacheTTL)
	s.cacheSub = pub.Subscribe(events.AllTenants)
	go s.boards.watch(s.cacheSub)
	s.wsHandler = NewWSHandler(pub, logger)

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", cors(s.handleHealth))

	s.mux.HandleFunc("GET /api/transitions", cors(s.handleListTransitions))

	s.mux.HandleFunc("GET /api/tasks/{id}", cors(requireCaller(s.handleGetTask)))
	s.mux.HandleFunc("POST /api/tasks/{id}/move", cors(requireCaller(s.handleMoveTask)))
	s.mux.HandleFunc("GET /api/tasks/{id}/events", cors(requireCaller(s.handleTaskEvents)))

	s.mux.HandleFunc("GET /api/projects/{id}/board", cors(requireCaller(s.handleGetBoard)))

	s.mux.HandleFunc("GET /api/ws", requireCaller(s.wsHandler.ServeHTTP))

	// CORS preflight for every API route.
	s.mux.HandleFunc("OPTIONS /api/", cors(func(w http.ResponseWriter, r *http.Request) {}))
}

// Handler returns the HTTP handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return logRequests(s.logger, s.mux)
}

// Coordinator returns the move coordinator backing the server.
func (s *Server) Coordinator() *board.Coordinator {
	return s.coordinator
}

// StartContext serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) StartContext(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server")
	s.wsHandler.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the server's subscriptions, and the publisher when New
// created it. The backend is left open.
func (s *Server) Close() {
	s.wsHandler.Close()
	s.publisher.Unsubscribe(events.AllTenants, s.cacheSub)
	if s.ownsPublisher {
		s.publisher.Close()
	}
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.backend.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	jsonResponseStatus(w, map[string]string{"status": status}, code)
}
