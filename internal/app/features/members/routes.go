// internal/app/features/members/routes.go
package members

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts member management routes (typically at "/members").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/invitations", h.ServeInviteFacilitator)
		pr.Post("/{memberID}/role", h.ServeChangeRole)
		pr.Delete("/{memberID}", h.ServeRemove)
	})

	return r
}
