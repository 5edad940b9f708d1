package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, middleware.RequestID)
	router.Use(h.withTraceID, h.withLogging)
	router.Use(middleware.Compress(5, "application/json"))

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/health", h.health)
		r.Get("/api/version", h.getServerVersion)
	})

	if h.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/notes", func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/", h.createNote)
		r.Patch("/{noteID}", h.updateNote)
		r.Delete("/{noteID}", h.deleteNote)
		r.Post("/sync", h.syncNotes)
		r.Get("/sync/after/{timestamp}", h.changesAfter)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
