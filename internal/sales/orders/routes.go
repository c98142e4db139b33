package orders

import (
	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router) {
	// Order routes - View
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermOrdersView))
		r.Get("/orders", h.List)
		r.Get("/orders/{id}", h.Show)
		r.Get("/orders/{id}/history", h.History)
	})

	// Order routes - Create
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermOrdersCreate))
		r.Post("/orders", h.Create)
	})

	// Order routes - Edit
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermOrdersEdit))
		r.Put("/orders/{id}", h.Update)
		r.Post("/orders/{id}/status", h.ChangeStatus)
	})

	// Payments
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermPaymentsApprove))
		r.Post("/orders/{id}/payments/{kind}/approve", h.ApprovePayment)
	})

	// Order routes - Delete
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermOrdersDelete))
		r.Delete("/orders/{id}", h.Delete)
	})
}
