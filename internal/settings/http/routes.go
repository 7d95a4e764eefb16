package settingshttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/cleanmanager/cleanmanager/internal/shared"
)

// MountRoutes registers the settings endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/settings/{resource}", func(r chi.Router) {
		r.Use(shared.RequireTenant)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Patch("/{id}/activo", h.handleSetActive)
	})
}
