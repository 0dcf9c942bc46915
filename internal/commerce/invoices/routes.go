package invoices

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Get("/invoices/{id}", h.Show)
	r.Post("/invoices", h.Derive)
	r.Put("/invoices/{id}", h.Update)
	r.Post("/invoices/{id}/transition", h.Transition)
}
