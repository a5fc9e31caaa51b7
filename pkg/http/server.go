package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"passroast-server/pkg/analyzer"
	"passroast-server/pkg/config"
	"passroast-server/pkg/errors"
	"passroast-server/pkg/metrics"
	"passroast-server/pkg/roast"
	"passroast-server/pkg/version"

	"github.com/sirupsen/logrus"
)

// AMQPStatusReporter exposes broker connectivity for health checks
type AMQPStatusReporter interface {
	IsConnected() bool
}

// Server represents the HTTP server for the analysis API, health checks
// and metrics
type Server struct {
	config             *config.HTTPConfig
	logger             *logrus.Logger
	httpServer         *http.Server
	mux                *http.ServeMux
	startTime          time.Time
	additionalHandlers map[string]http.HandlerFunc

	lexicon    *analyzer.Lexicon
	oracle     analyzer.Oracle
	roasts     *roast.Manager
	amqpClient AMQPStatusReporter
	wsHub      *EventHub
}

// NewServer creates a new HTTP server instance
func NewServer(logger *logrus.Logger, cfg *config.HTTPConfig) *Server {
	server := &Server{
		config:             cfg,
		logger:             logger,
		startTime:          time.Now(),
		additionalHandlers: make(map[string]http.HandlerFunc),
	}

	mux := http.NewServeMux()
	server.mux = mux

	// Register standard endpoints
	mux.HandleFunc("/health", server.HealthHandler)
	mux.HandleFunc("/api/health", server.HealthHandler)
	mux.HandleFunc("/health/live", server.LivenessHandler)
	mux.HandleFunc("/health/ready", server.ReadinessHandler)
	mux.HandleFunc("/status", server.statusHandler)

	if cfg.EnableMetrics {
		metrics.RegisterHandler(mux)
		logger.Info("Prometheus metrics endpoint enabled at /metrics")
	} else {
		logger.Info("Metrics endpoint disabled")
	}

	// Unmatched paths get a JSON 404 instead of the mux default
	mux.HandleFunc("/", server.notFoundHandler)

	// Middleware chain: request logging wraps everything so panics and
	// CORS rejections still produce a log line with the request id
	handler := corsMiddleware(cfg.CORSOrigins)(mux)
	handler = recoverPanics(logger)(handler)
	handler = requestLogger(logger)(handler)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server
}

// RegisterHandler adds a custom handler to the server
func (s *Server) RegisterHandler(path string, handler http.HandlerFunc) {
	s.additionalHandlers[path] = handler

	if s.mux != nil {
		s.mux.HandleFunc(path, handler)
	}

	s.logger.WithField("path", path).Info("Registered HTTP handler")
}

// SetLexicon sets the lexicon reference for health checks
func (s *Server) SetLexicon(lexicon *analyzer.Lexicon) {
	s.lexicon = lexicon
}

// SetOracle sets the breach oracle reference for health checks
func (s *Server) SetOracle(oracle analyzer.Oracle) {
	s.oracle = oracle
}

// SetRoastManager sets the roast manager reference for health checks
func (s *Server) SetRoastManager(manager *roast.Manager) {
	s.roasts = manager
}

// SetAMQPClient sets the AMQP client reference for health checks
func (s *Server) SetAMQPClient(client AMQPStatusReporter) {
	s.amqpClient = client
}

// SetEventHub wires the websocket event hub and registers its endpoint
func (s *Server) SetEventHub(hub *EventHub) {
	s.wsHub = hub

	if s.mux != nil {
		s.mux.HandleFunc("/ws/events", hub.ServeHTTP)
		s.logger.Info("Event websocket endpoint registered at /ws/events")
	}
}

// Start starts the HTTP server in a goroutine
func (s *Server) Start() {
	s.logger.WithFields(logrus.Fields{
		"host": s.config.Host,
		"port": s.config.Port,
	}).Info("Starting HTTP server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	// Verify that we can actually bind to the port
	go func() {
		time.Sleep(500 * time.Millisecond)

		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", s.config.Port), 2*time.Second)
		if err != nil {
			s.logger.WithError(err).Error("Could not connect to HTTP server")
		} else {
			s.logger.Info("HTTP server is running correctly")
			conn.Close()
		}
	}()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

// statusHandler handles the /status endpoint
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.WithField("endpoint", "/status").Debug("Status endpoint accessed")

	status := map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"version":    version.Version,
		"started_at": s.startTime.Format(time.RFC3339),
	}

	if s.wsHub != nil {
		status["websocket_clients"] = s.wsHub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// notFoundHandler returns a JSON 404 for any unregistered path
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	errors.WriteError(w, errors.NewNotFound("Endpoint not found", map[string]interface{}{
		"path": r.URL.Path,
	}))
}

// ErrorResponse sends a standardized error response
func (s *Server) ErrorResponse(w http.ResponseWriter, err error) {
	errors.WriteError(w, err)
	s.logger.WithError(err).Warn("HTTP error response sent")
}
