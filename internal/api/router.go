package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Service endpoints
	r.Head("/", s.handleVersion)
	r.Get("/__version__", s.handleVersion)
	r.Get("/__meta__", s.handleMeta)
	r.Get("/__metrics__", s.handleMetrics)
	r.Get("/__audit__", s.handleListAuditLogs)
	r.Get("/favicon.ico", s.handleFavicon)
	r.Get("/health", s.handleHealth)

	if s.wsCfg.Path != "" {
		r.Get(s.wsCfg.Path, s.handleWebSocket)
	}

	// Applications, mounted in a stable order
	prefixes := make([]string, 0, len(s.cfg.Mounts))
	for prefix := range s.cfg.Mounts {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		switch s.cfg.Mounts[prefix] {
		case AppEntity:
			r.Mount(prefix, s.entityRouter())
		}
	}

	return r
}

// entityRouter serves the entity application relative to its mount point.
func (s *Server) entityRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleListEntities)

	r.Route("/{driver}", func(r chi.Router) {
		r.Get("/", s.handleListEntities)
		r.Post("/", s.handleCreateEntities)
		r.Delete("/", s.handleDeleteEntities)

		r.Get("/{name}", s.handleShowEntity)
		r.Put("/{name}", s.handleInsertEntities)
	})

	return r
}
