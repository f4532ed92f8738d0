// internal/api/system.go
package api

import (
	"net/http"
	"time"

	"airtable-gateway/internal/models"
)

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Service:   s.cfg.App.Name,
		Version:   s.cfg.App.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// readyCheck reports whether the gateway can serve traffic. A missing cache
// is reported but does not fail readiness; reads degrade to the upstream.
func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) error {
	checks := map[string]string{}

	ready := true
	if s.registry.Len() > 0 {
		checks["schemas"] = "ok"
	} else {
		checks["schemas"] = "empty"
		ready = false
	}

	switch {
	case s.redis == nil:
		checks["redis"] = "disabled"
	case s.redis.Ping(r.Context()) == nil:
		checks["redis"] = "ok"
	default:
		checks["redis"] = "unavailable"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}

	return writeJSON(w, status, models.ReadyResponse{Status: state, Checks: checks})
}

func (s *Server) getSchemas(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, models.SchemasResponse{
		Success:         true,
		AvailableTables: s.registry.Tables(),
		Schemas:         s.registry.Info(),
		TotalTables:     s.registry.Len(),
	})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, models.ConfigResponse{
		Success: true,
		Config:  s.cfg.Sanitized(),
		Message: "Application configuration retrieved successfully",
	})
}
