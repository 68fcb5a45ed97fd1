package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/mentionlens/mentionlens/internal/server/handlers"
	servermw "github.com/mentionlens/mentionlens/internal/server/middleware"
)

// registerRoutes wires the endpoint handlers. /health and /version are open;
// the scanning endpoints sit behind bearer auth.
func (s *Server) registerRoutes(version string) {
	s.router.Get("/health", handlers.Health(version))
	s.router.Get("/version", handlers.Version())

	search := &handlers.SearchHandler{Config: s.cfg, Version: version}

	s.router.Group(func(r chi.Router) {
		r.Use(servermw.BearerAuth(s.cfg.Server.BearerToken))
		r.Post("/search", search.Search)
		r.Post("/report", search.Report)
	})
}
