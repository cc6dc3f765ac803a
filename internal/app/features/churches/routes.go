// internal/app/features/churches/routes.go
package churches

import (
	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts platform church administration (typically at "/churches").
// Platform scope: no tenant middleware.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeProvision)
		pr.Post("/{churchID}/suspend", h.ServeSetStatus(models.ChurchSuspended))
		pr.Post("/{churchID}/activate", h.ServeSetStatus(models.ChurchActive))
	})

	return r
}
