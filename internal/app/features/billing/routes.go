// internal/app/features/billing/routes.go
package billing

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts billing routes (typically at "/billing").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/subscription", h.ServeSubscription)
		pr.Post("/checkout", h.ServeCheckout)
		pr.Post("/portal", h.ServePortal)
	})

	return r
}
