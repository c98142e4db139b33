package delivery

import (
	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/rbac"
)

// MountRoutes registers delivery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Delivery routes - View
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermDeliveryView))
		r.Get("/deliveries", h.list)
		r.Get("/deliveries/{id}", h.show)
	})

	// Delivery routes - Update
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermDeliveryUpdate))
		r.Post("/deliveries/{id}/dispatch", h.dispatch)
		r.Post("/deliveries/{id}/deliver", h.markDelivered)
	})
}
