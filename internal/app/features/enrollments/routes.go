// internal/app/features/enrollments/routes.go
package enrollments

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/go-chi/chi/v5"
)

// Routes mounts enrollment routes (typically at "/enrollments").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tenant.RequireTenant)
		pr.Use(sm.RequireSignedIn)

		pr.Get("/mine", h.ServeMine)
		pr.Post("/", h.ServeAdminEnroll)
		pr.Post("/self/{classID}", h.ServeSelfEnroll)
		pr.Post("/self/{classID}/drop", h.ServeDrop)
		pr.Get("/{classID}/roster", h.ServeRoster)
		pr.Post("/{classID}/complete", h.ServeComplete)
	})

	return r
}
