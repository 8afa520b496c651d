package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// Operational routes, no session
	r.Get("/healthz", h.HealthHandler)
	r.Handle("/metrics", metricsHandler)

	// Workbench pages
	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/", h.IndexHandler)
		r.Get("/tools/{tool}", h.ToolHandler)

		r.Post("/tools/primer/{action}", h.PrimerHandler)
		r.Post("/tools/restriction", h.RestrictionHandler)
		r.Post("/tools/gibson", h.GibsonHandler)
		r.Post("/tools/ncbi/{action}", h.NCBIHandler)
		r.Post("/tools/papers/{action}", h.PapersHandler)

		r.Post("/chat", h.ChatHandler)
		r.Post("/chat/clear", h.ClearChatHandler)
		r.Post("/chat/model", h.ModelHandler)
	})

	return r
}
