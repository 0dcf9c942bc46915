package quotations

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.List)
	r.Get("/quotations/{id}", h.Show)
	r.Post("/quotations", h.Create)
	r.Put("/quotations/{id}", h.Update)
	r.Post("/quotations/{id}/transition", h.Transition)
}
