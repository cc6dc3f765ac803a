// internal/app/features/programs/routes.go
package programs

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts program routes (typically at "/programs" from bootstrap).
// All routes run under a resolved tenant and a signed-in session; per-action
// authorization happens inside the handlers.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)
		pr.Post("/reorder", h.ServeReorder)
		pr.Get("/{programID}", h.ServeGet)
		pr.Patch("/{programID}", h.ServeUpdate)
		pr.Delete("/{programID}", h.ServeDelete)
		pr.Post("/{programID}/publish", h.ServePublish)
		pr.Post("/{programID}/unpublish", h.ServeUnpublish)
	})

	return r
}
