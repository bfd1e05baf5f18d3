// Package delivery manages delivery challans.
package delivery

import "github.com/go-chi/chi/v5"

// MountRoutes wires the challan API, normally under /api/delivery-challans.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}
