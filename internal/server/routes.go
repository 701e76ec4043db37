package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(s.recoverHandler)

	// UI pages
	router.Get("/", s.handleList)
	router.Get("/create", s.handleCreateForm)
	router.Post("/create", s.handleCreateSubmit)
	router.Get("/edit/{id}", s.handleEditForm)
	router.Post("/edit/{id}", s.handleEditSubmit)

	// JSON API
	router.Route("/api/employees", func(r chi.Router) {
		r.Use(s.corsMiddleware)
		r.Get("/", s.handleAPIList)
		r.Post("/", s.handleAPICreate)
		r.Get("/{id}", s.handleAPIGet)
		r.Put("/{id}", s.handleAPIUpdate)
		r.Delete("/{id}", s.handleAPIDelete)
	})

	return router
}
