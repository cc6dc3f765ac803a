// internal/app/features/authcallback/routes.go
package authcallback

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the sign-in endpoints. No tenant or session middleware
// here: login must work for anonymous visitors, and the provider's
// callback arrives without a session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/login", h.ServeLogin)
	r.Get("/callback", h.ServeCallback)
	r.Post("/logout", h.ServeLogout)
	return r
}
