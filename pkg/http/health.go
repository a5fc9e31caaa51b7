package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"passroast-server/pkg/version"

	"github.com/sirupsen/logrus"
)

// serviceName identifies this service in health responses
const serviceName = "passroast-server"

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	System    SystemInfo             `json:"system"`
}

// CheckResult represents an individual health check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemInfo contains system resource information
type SystemInfo struct {
	GoRoutines       int    `json:"goroutines"`
	MemoryMB         uint64 `json:"memory_mb"`
	CPUCount         int    `json:"cpu_count"`
	WebsocketClients int    `json:"websocket_clients"`
}

// HealthHandler handles health check requests
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	health := HealthStatus{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Version:   version.Version,
		Checks:    make(map[string]CheckResult),
	}

	markDegraded := func() {
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	}

	// Check the wordlist lexicon, without it analysis cannot run
	if s.lexicon != nil && s.lexicon.TotalWords() > 0 {
		health.Checks["lexicon"] = CheckResult{
			Status: "healthy",
			Message: fmt.Sprintf("%d words across %d languages",
				s.lexicon.TotalWords(), len(s.lexicon.Languages())),
		}
	} else {
		health.Checks["lexicon"] = CheckResult{
			Status:  "unhealthy",
			Message: "Lexicon not loaded",
		}
		health.Status = "unhealthy"
	}

	// Check the breach oracle
	if s.oracle != nil {
		health.Checks["oracle"] = CheckResult{
			Status:  "healthy",
			Message: "Breach oracle configured",
		}
	} else {
		health.Checks["oracle"] = CheckResult{
			Status:  "degraded",
			Message: "Breach oracle disabled, analyses run without breach data",
		}
		markDegraded()
	}

	// Check roast generation. The canned corpus keeps roasting healthy
	// even without a registered provider.
	if s.roasts != nil {
		if provider, exists := s.roasts.GetDefaultProvider(); exists {
			health.Checks["roast"] = CheckResult{
				Status:  "healthy",
				Message: fmt.Sprintf("Roast provider %s registered", provider.Name()),
			}
		} else {
			health.Checks["roast"] = CheckResult{
				Status:  "healthy",
				Message: "Serving canned roasts",
			}
		}
	} else {
		health.Checks["roast"] = CheckResult{
			Status:  "degraded",
			Message: "Roast generation disabled",
		}
		markDegraded()
	}

	// Check AMQP if configured
	if s.amqpClient != nil {
		// Safely call IsConnected with panic recovery
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					health.Checks["messaging"] = CheckResult{
						Status:  "degraded",
						Message: "AMQP client error",
					}
					markDegraded()
				}
			}()

			if s.amqpClient.IsConnected() {
				health.Checks["messaging"] = CheckResult{
					Status:  "healthy",
					Message: "AMQP connected",
				}
			} else {
				health.Checks["messaging"] = CheckResult{
					Status:  "degraded",
					Message: "AMQP disconnected",
				}
				markDegraded()
			}
		}()
	}

	// Check the websocket event hub
	if s.wsHub != nil {
		health.Checks["websocket"] = CheckResult{
			Status:  "healthy",
			Message: fmt.Sprintf("%d clients connected", s.wsHub.ClientCount()),
		}
		health.System.WebsocketClients = s.wsHub.ClientCount()
	}

	// System information
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	health.System.GoRoutines = runtime.NumGoroutine()
	health.System.MemoryMB = m.Alloc / 1024 / 1024
	health.System.CPUCount = runtime.NumCPU()

	if r.URL.Query().Get("detailed") == "true" {
		s.logger.WithFields(logrus.Fields{
			"status":   health.Status,
			"checks":   health.Checks,
			"duration": time.Since(startTime),
		}).Debug("Health check performed")
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(health)
}

// LivenessHandler handles kubernetes liveness probe
func (s *Server) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ReadinessHandler handles kubernetes readiness probe
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.lexicon != nil && s.lexicon.TotalWords() > 0 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("not ready"))
}
