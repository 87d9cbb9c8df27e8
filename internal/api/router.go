package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the per-request component checks.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/channels", s.handleListChannels)
	})

	return r
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// handleHealth reports "ok", or "degraded" with 503 when any component fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: s.version}
	if len(s.health) > 0 {
		resp.Components = make(map[string]string, len(s.health))
	}

	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.health[name].HealthCheck(ctx); err != nil {
			resp.Components[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleListChannels returns the channel ledger, most recent first.
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	if s.channels == nil {
		writeUnavailable(w, "channel ledger disabled (database.enabled is false)")
		return
	}

	records, err := s.channels.ListChannels(r.Context())
	if err != nil {
		s.logger.Error("listing channels", "error", err)
		writeInternalError(w, "failed to list channels")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channels": records,
		"count":    len(records),
	})
}
