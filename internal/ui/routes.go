package ui

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(ui.SessionMiddleware)

		r.Get("/", ui.HandleIndex)

		// Algorithms
		r.Route("/algorithms/{name}", func(r chi.Router) {
			r.Get("/", ui.HandleAlgorithm)
			r.Post("/", ui.HandleAlgorithmPost)
		})

		// Run history
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", ui.HandleRunList)
			r.Get("/{id}", ui.HandleRunDetail)
		})
	})
}
