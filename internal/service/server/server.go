package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
	"github.com/vertextoedge/remote-pull-agent/internal/service/status"
)

// Agent is the transfer control surface the server exposes over HTTP
type Agent interface {
	RunTransfer(ctx context.Context, direction domain.Direction) error
	SetSourcePath(spec string) error
	CurrentSource() (string, error)
}

// Pinger reports storage liveness for health checks
type Pinger interface {
	Ping() error
}

// Config contains HTTP server configuration
type Config struct {
	BindAddr      string
	AdminUsername string
	AdminPassword string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "0.0.0.0:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server represents the HTTP control server
type Server struct {
	config        *Config
	pinger        Pinger
	logger        *zap.Logger
	server        *http.Server
	adminHandler  *AdminHandler
	statusHandler *StatusHandler
}

// New creates a new HTTP server
func New(cfg *Config, agent Agent, schedule port.ScheduleStore, runs port.RunRepository, stat *status.Service, pinger Pinger, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		config: cfg,
		pinger: pinger,
		logger: logger,
	}

	s.adminHandler = NewAdminHandler(agent, schedule, logger)
	s.statusHandler = NewStatusHandler(stat, runs, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Control endpoints, basic-auth protected
	auth := BasicAuthMiddleware(cfg.AdminUsername, cfg.AdminPassword, logger)
	mux.HandleFunc("/run", auth(s.adminHandler.HandleRun))
	mux.HandleFunc("/source", auth(s.adminHandler.HandleSource))
	mux.HandleFunc("/schedule/enable", auth(s.adminHandler.HandleScheduleEnable))
	mux.HandleFunc("/schedule/disable", auth(s.adminHandler.HandleScheduleDisable))
	mux.HandleFunc("/schedule/interval", auth(s.adminHandler.HandleScheduleInterval))

	// Status endpoints
	mux.HandleFunc("/status/disk", auth(s.statusHandler.HandleDisk))
	mux.HandleFunc("/status/remote", auth(s.statusHandler.HandleRemote))
	mux.HandleFunc("/runs", auth(s.statusHandler.HandleRuns))

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      LoggingMiddleware(logger)(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.pinger.Ping(); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "Database connection failed", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","time":"` + time.Now().Format(time.RFC3339) + `"}`))
}
