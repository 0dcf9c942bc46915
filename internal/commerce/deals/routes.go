package deals

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/deals", h.List)
	r.Get("/deals/{id}", h.Show)
	r.Post("/deals", h.Derive)
	r.Put("/deals/{id}", h.Update)
	r.Post("/deals/{id}/transition", h.Transition)
}
