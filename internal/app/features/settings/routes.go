// internal/app/features/settings/routes.go
package settings

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts settings routes (typically at "/settings"). Platform
// settings have no tenant requirement; RequireSignedIn still applies.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/church", h.ServeChurchGet)
		pr.Patch("/church", h.ServeChurchUpdate)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/platform", h.ServePlatformList)
		pr.Put("/platform/{key}", h.ServePlatformSet)
	})

	return r
}
