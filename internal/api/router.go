package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.accessLogMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware())
	r.Use(preflightMiddleware)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, Error{Code: ErrCodeMethodNotAllow, Message: "method not allowed"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Browsers cannot set headers on a WebSocket upgrade; the handler
		// authenticates with a ticket instead.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Get("/homes", s.handleListHomes)
			r.Route("/homes/{id}", func(r chi.Router) {
				r.Get("/rooms", s.handleHomeRooms)
				r.Get("/lights", s.handleHomeLights)
			})

			r.Route("/rooms/{id}", func(r chi.Router) {
				r.Get("/home", s.handleRoomHome)
				r.Get("/lights", s.handleRoomLights)
			})

			r.Route("/lights/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetLight)
				r.Put("/state", s.handleSetLightState)
			})

			r.Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"clients": s.hub.ClientCount(),
		"dropped": s.hub.Dropped(),
	})
}
