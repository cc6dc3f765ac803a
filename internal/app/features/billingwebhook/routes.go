// internal/app/features/billingwebhook/routes.go
package billingwebhook

import "github.com/go-chi/chi/v5"

// Routes mounts the webhook endpoint (typically at "/webhooks/stripe").
// No session or tenant middleware: events arrive from Stripe, not browsers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Serve)
	return r
}
