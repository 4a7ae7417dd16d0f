package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/port"
	"github.com/vertextoedge/plots-begone/internal/service/keeper"
)

// Config contains HTTP server configuration
type Config struct {
	BindAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	HistoryLimit int
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "127.0.0.1:9100",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		HistoryLimit: 50,
	}
}

// SnapshotSource publishes the keeper state
type SnapshotSource interface {
	Snapshot() *keeper.Snapshot
}

// Server exposes read-only status of the keeper over HTTP
type Server struct {
	config        *Config
	logger        *zap.Logger
	server        *http.Server
	statusHandler *StatusHandler
	journal       port.Journal
	snapshots     SnapshotSource
}

// New creates a new HTTP server. journal and metrics may be nil.
func New(cfg *Config, snapshots SnapshotSource, journal port.Journal, metrics http.Handler, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		journal:   journal,
		snapshots: snapshots,
	}

	s.statusHandler = NewStatusHandler(snapshots, journal, cfg.HistoryLimit, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Status endpoints
	mux.HandleFunc("/status", s.statusHandler.HandleStatus)
	mux.HandleFunc("/history", s.statusHandler.HandleHistory)

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      LoggingMiddleware(logger)(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, middleware included
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.snapshots.Snapshot() == nil {
		http.Error(w, "Index not built yet", http.StatusServiceUnavailable)
		return
	}

	if s.journal != nil {
		if err := s.journal.Ping(); err != nil {
			s.logger.Error("health check failed", zap.Error(err))
			http.Error(w, "Journal connection failed", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","time":"` + time.Now().Format(time.RFC3339) + `"}`))
}
