// internal/app/features/classes/routes.go
package classes

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts class routes (typically at "/classes" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)
		pr.Patch("/{classID}", h.ServeUpdate)
		pr.Delete("/{classID}", h.ServeDelete)
		pr.Post("/{classID}/facilitator", h.ServeAssignFacilitator)
		pr.Post("/{classID}/meeting", h.ServeSetMeeting)
	})

	return r
}
