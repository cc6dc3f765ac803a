// internal/app/features/auditview/routes.go
package auditview

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts audit trail routes (typically at "/audit").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeChurchList)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/platform", h.ServePlatformList)
	})

	return r
}
