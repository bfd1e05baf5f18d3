package customers

import "github.com/go-chi/chi/v5"

// MountRoutes registers the customer API under the router it is given,
// normally /api/customers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/ledger", h.AddLedgerEntry)
	r.Put("/{id}/ledger/{entryId}", h.UpdateLedgerEntry)
	r.Delete("/{id}/ledger/{entryId}", h.DeleteLedgerEntry)
}
