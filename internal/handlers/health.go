// Package handlers provides the HTTP handlers of the client's local debug
// server. The client itself is not an HTTP server; the debug server only
// lets an operator check that the tab's storage and the backend are
// reachable and scrape the client's Prometheus metrics.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ieraasyl/SavorViews/internal/session"
	"github.com/ieraasyl/SavorViews/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Pinger is a dependency whose reachability the readiness check verifies.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints for the debug server.
// Provides both a simple liveness check describing the tab and a readiness
// check that verifies the tab's storage and the backend.
type HealthHandler struct {
	tabID   string
	device  string
	store   *session.Store
	storage Pinger // Tab-durable storage (Redis or memory)
	backend Pinger // Backend API client
}

// NewHealthHandler creates a new health handler.
//
// Example:
//
//	healthHandler := handlers.NewHealthHandler(cfg.Tab.ID, device, store, storage, client)
//	r.Get("/health", healthHandler.Health)
//	r.Get("/ready", healthHandler.Ready)
func NewHealthHandler(tabID, device string, store *session.Store, storage, backend Pinger) *HealthHandler {
	return &HealthHandler{
		tabID:   tabID,
		device:  device,
		store:   store,
		storage: storage,
		backend: backend,
	}
}

// HealthResponse represents the health check response structure.
// Used by both the basic health check and detailed readiness check.
//
// JSON example:
//
//	{
//	  "status": "ok",
//	  "timestamp": "2024-01-20T14:30:00Z",
//	  "tab_id": "5b7c...",
//	  "device": "Chrome on Windows",
//	  "authenticated": true,
//	  "services": {
//	    "storage": "healthy",
//	    "backend": "healthy"
//	  }
//	}
type HealthResponse struct {
	Status        string            `json:"status"`             // Overall status: "ok" or "degraded"
	Timestamp     time.Time         `json:"timestamp"`          // Current time
	TabID         string            `json:"tab_id,omitempty"`   // Tab whose storage this process uses
	Device        string            `json:"device,omitempty"`   // Label derived from the User-Agent
	Authenticated bool              `json:"authenticated"`      // Whether the session holds an identity
	Services      map[string]string `json:"services,omitempty"` // Individual dependency health (readiness only)
}

// Health returns a liveness check describing the tab. It never touches the
// storage or the backend.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		TabID:     h.tabID,
		Device:    h.device,
	}
	if h.store != nil {
		response.Authenticated = h.store.Current().Authenticated()
	}

	utils.RespondWithJSON(w, r, http.StatusOK, response)
}

// Ready checks that the tab's storage and the backend are reachable.
// Returns 200 OK if both are, or 503 Service Unavailable otherwise.
//
// Checks have a 5-second timeout so a stuck dependency cannot hang /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	allHealthy := true

	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			log.Error().Err(err).Str("service", name).Msg("Health check failed")
			services[name] = "unhealthy"
			allHealthy = false
			return
		}
		services[name] = "healthy"
	}

	check("storage", h.storage)
	check("backend", h.backend)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		TabID:     h.tabID,
		Device:    h.device,
		Services:  services,
	}
	if h.store != nil {
		response.Authenticated = h.store.Current().Authenticated()
	}

	statusCode := http.StatusOK
	if !allHealthy {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, r, statusCode, response)
}
