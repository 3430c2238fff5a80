package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-systembus/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Route("/bus", func(r chi.Router) {
			r.With(s.require(auth.PermBusRead)).Get("/", s.handleGetBus)
			r.With(s.require(auth.PermBusReset)).Delete("/", s.handleResetBus)
		})

		r.Route("/devices", func(r chi.Router) {
			r.With(s.require(auth.PermBusRead)).Get("/", s.handleListDevices)
			r.With(s.require(auth.PermBusOperate)).Post("/", s.handleAddDevice)

			r.Route("/{id}/data", func(r chi.Router) {
				r.With(s.require(auth.PermBusRead)).Get("/", s.handleReadData)
				r.With(s.require(auth.PermBusOperate)).Put("/", s.handleWriteData)
				r.With(s.require(auth.PermBusOperate)).Delete("/", s.handleRemoveData)
			})
		})

		r.With(s.require(auth.PermAuditRead)).Get("/events", s.handleListEvents)
		r.With(s.require(auth.PermBusRead)).Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"devices":  s.bus.Len(),
		"capacity": s.bus.Capacity(),
	})
}
