package clients

import (
	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router) {
	// Client routes
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermClientsView))
		r.Get("/clients", h.List)
		r.Get("/clients/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermClientsCreate))
		r.Post("/clients", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermClientsEdit))
		r.Put("/clients/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermClientsDelete))
		r.Delete("/clients/{id}", h.Delete)
	})
}
