package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-inventory/internal/driver"
)

// healthCheckTimeout bounds the database ping done by /health.
const healthCheckTimeout = 2 * time.Second

// MetaResponse describes what the server exposes.
type MetaResponse struct {
	Drivers []driver.Driver   `json:"drivers"`
	Mounts  map[string]string `json:"mounts"`
	Version string            `json:"version"`
}

// handleVersion returns the running version as a JSON string.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.version)
}

// handleMeta returns the mount table and the registered drivers.
func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	mounts := s.cfg.Mounts
	if mounts == nil {
		mounts = map[string]string{}
	}
	writeJSON(w, http.StatusOK, MetaResponse{
		Drivers: s.drivers.List(),
		Mounts:  mounts,
		Version: s.version,
	})
}

// handleFavicon tells browsers there is no icon, permanently.
func (s *Server) handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusGone)
}

// handleHealth returns the server health status. The database must answer
// and carry every embedded migration.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if s.db == nil {
		writeJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", "component", "database", "error", err)
		body["database"] = "unavailable"
		body["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	schema, err := s.db.SchemaStatus(ctx)
	if err != nil || !schema.UpToDate() {
		s.logger.Warn("health check failed", "component", "schema", "error", err, "pending", schema.Pending)
		body["database"] = "schema out of date"
		body["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["schema"] = schema.Version
	writeJSON(w, http.StatusOK, body)
}
