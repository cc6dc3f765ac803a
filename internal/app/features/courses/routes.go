// internal/app/features/courses/routes.go
package courses

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts course routes (typically at "/courses" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)
		pr.Post("/reorder", h.ServeReorder)
		pr.Patch("/{courseID}", h.ServeUpdate)
		pr.Delete("/{courseID}", h.ServeDelete)
		pr.Post("/{courseID}/publish", h.ServeSetPublished(true))
		pr.Post("/{courseID}/unpublish", h.ServeSetPublished(false))
	})

	return r
}
