// internal/app/features/assets/routes.go
package assets

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts asset routes (typically at "/assets").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeRegister)
		pr.Get("/usage", h.ServeUsage)
		pr.Delete("/{assetID}", h.ServeDelete)
	})

	return r
}
