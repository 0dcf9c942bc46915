package payments

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payments", h.List)
	r.Get("/payments/{id}", h.Show)
	r.Post("/payments", h.Register)
	r.Delete("/payments/{id}", h.Remove)
}
