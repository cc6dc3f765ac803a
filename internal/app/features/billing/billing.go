// internal/app/features/billing/billing.go
package billing

import (
	"encoding/json"
	"net/http"

	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeSubscription handles GET /subscription - the church's current plan
// and whether a provider subscription is attached.
func (h *Handler) ServeSubscription(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionBillingManage); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "subscription view")
	defer cancel()

	church, err := churchstore.New(h.DB).GetByID(ctx, t.ID)
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{
		"plan":       church.Plan,
		"subscribed": church.StripeSubscriptionID != "",
	})
}

// ServeCheckout handles POST /checkout with {"plan": "pro"|"unlimited"}.
// Creates the provider customer on first use, then returns the hosted
// checkout URL. The plan itself only changes later, when the provider's
// webhook confirms the subscription.
func (h *Handler) ServeCheckout(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionBillingManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var body struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	priceID, ok := h.Prices.PriceForPlan(body.Plan)
	if !ok {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "billing checkout")
	defer cancel()

	churches := churchstore.New(h.DB)
	church, err := churches.GetByID(ctx, t.ID)
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if church.Plan == body.Plan {
		httperr.Write(w, httperr.ErrConflict)
		return
	}

	customerID := church.StripeCustomerID
	if customerID == "" {
		customerID, err = h.Provider.CreateCustomer(ctx, church)
		if err != nil {
			httperr.Write(w, httperr.ErrProviderFailure)
			return
		}
		// First writer wins; a concurrent checkout may have set it already.
		if err := churches.SetStripeCustomerID(ctx, church.ID, customerID); err != nil {
			if refreshed, rerr := churches.GetByID(ctx, church.ID); rerr == nil && refreshed.StripeCustomerID != "" {
				customerID = refreshed.StripeCustomerID
			} else {
				h.Log.Error("stripe customer attach failed", zap.Error(err))
				httperr.Write(w, httperr.ErrProviderFailure)
				return
			}
		}
	}

	url, err := h.Provider.CheckoutURL(ctx, customerID, priceID, h.SuccessURL, h.CancelURL)
	if err != nil {
		httperr.Write(w, httperr.ErrProviderFailure)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.CheckoutStarted(ctx, r, actorID, t.ID, body.Plan)

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ServePortal handles POST /portal - a provider-hosted page where the admin
// can change cards or cancel. Requires an existing customer.
func (h *Handler) ServePortal(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionBillingManage); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "billing portal")
	defer cancel()

	church, err := churchstore.New(h.DB).GetByID(ctx, t.ID)
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if church.StripeCustomerID == "" {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	url, err := h.Provider.PortalURL(ctx, church.StripeCustomerID, h.ReturnURL)
	if err != nil {
		httperr.Write(w, httperr.ErrProviderFailure)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
