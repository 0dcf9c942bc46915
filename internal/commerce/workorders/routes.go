package workorders

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/work-orders", h.List)
	r.Get("/work-orders/{id}", h.Show)
	r.Post("/work-orders", h.Derive)
	r.Put("/work-orders/{id}", h.Update)
	r.Post("/work-orders/{id}/transition", h.Transition)
}
