// Package server provides the monitor's HTTP API and dashboard surface.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/version"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// FabricService provides fabric state to the API handlers. Defined here
// (consumer-side) rather than importing the concrete monitor.
type FabricService interface {
	Devices(ctx context.Context) []models.DeviceHealth
	Device(ctx context.Context, id string) (models.DeviceHealth, error)
	Tunnels(ctx context.Context) []models.TunnelHealth
	Alarms(ctx context.Context) []models.Alarm
	FabricHealth(ctx context.Context) models.FabricHealth
	AcknowledgeAlarm(ctx context.Context, alarmID string) error
}

// AlertService provides the locally generated alert collections.
type AlertService interface {
	Active(limit int) []models.Alert
	History() []models.Alert
	Acknowledge(id string) bool
	ClearAcknowledged() int
}

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// RouteRegistrar allows external packages (the WebSocket handler) to
// register routes without creating import cycles.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the monitor's HTTP server.
type Server struct {
	httpServer *http.Server
	fabric     FabricService
	alerts     AlertService
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
}

// New creates a Server with middleware and routes. alerts may be nil
// when alert evaluation is disabled; the alert endpoints then serve
// empty collections.
func New(addr string, fabric FabricService, alerts AlertService, logger *zap.Logger, ready ReadinessChecker, extraRoutes ...RouteRegistrar) *Server {
	mux := http.NewServeMux()

	s := &Server{
		fabric: fabric,
		alerts: alerts,
		logger: logger,
		mux:    mux,
		ready:  ready,
	}

	s.registerRoutes()
	for _, r := range extraRoutes {
		r.RegisterRoutes(mux)
	}

	// Middleware chain: outermost listed first.
	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, []string{"/healthz", "/readyz", "/metrics"}),
		SecurityHeadersMiddleware,
		VersionHeaderMiddleware,
		RateLimitMiddleware(100, 200, []string{"/healthz", "/readyz", "/metrics"}),
	}

	handler := Chain(mux, middlewares...)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all core routes.
func (s *Server) registerRoutes() {
	// Unversioned operational endpoints.
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Versioned API endpoints.
	s.mux.HandleFunc("GET /api/v1/version", s.handleVersion)
	s.mux.HandleFunc("GET /api/v1/fabric/health", s.handleFabricHealth)
	s.mux.HandleFunc("GET /api/v1/fabric/devices", s.handleDevices)
	s.mux.HandleFunc("GET /api/v1/fabric/devices/{id}", s.handleDevice)
	s.mux.HandleFunc("GET /api/v1/fabric/tunnels", s.handleTunnels)
	s.mux.HandleFunc("GET /api/v1/fabric/alarms", s.handleAlarms)
	s.mux.HandleFunc("POST /api/v1/fabric/alarms/{id}/ack", s.handleAckAlarm)
	s.mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
	s.mux.HandleFunc("POST /api/v1/alerts/{id}/ack", s.handleAckAlert)
	s.mux.HandleFunc("POST /api/v1/alerts/clear", s.handleClearAlerts)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealthz is a liveness probe -- returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReadyz checks readiness -- returns 200 if the server can serve traffic.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Map())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
