// internal/app/features/billingwebhook/handler.go
package billingwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	"github.com/chapelware/chapelhub/internal/app/system/billing"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// maxBodyBytes bounds webhook payloads, per Stripe's guidance.
const maxBodyBytes = int64(65536)

// Handler receives Stripe webhook events and feeds the subscription syncer.
// The endpoint is unauthenticated; the event signature is the credential.
type Handler struct {
	Syncer *billing.Syncer
	Secret string
	Log    *zap.Logger
	Audit  *auditlog.Logger
}

// NewHandler constructs the webhook handler with the endpoint signing secret.
func NewHandler(syncer *billing.Syncer, secret string, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Syncer: syncer,
		Secret: secret,
		Log:    logger,
		Audit:  audit,
	}
}

// Serve handles POST / - one Stripe event.
//
// Responses steer Stripe's retry behavior: 2xx acknowledges (including
// benign no-ops like replays and unmapped prices), 400 rejects bad
// signatures permanently, 5xx asks for a retry.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.Log.Warn("webhook body read failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		h.Log.Warn("webhook signature rejected", zap.Error(err))
		h.Audit.WebhookRejected(r.Context(), "bad signature", "")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "billing webhook")
	defer cancel()

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.Log.Warn("webhook subscription payload malformed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.applySubscription(ctx, w, string(event.Type), sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.Log.Warn("webhook subscription payload malformed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.Syncer.EndSubscription(ctx, sub.ID); err != nil && !errors.Is(err, billing.ErrNoMatch) {
			h.Log.Error("subscription end failed", zap.Error(err), zap.String("subscription_id", sub.ID))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		// Not a subscription lifecycle event; acknowledge and move on.
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) applySubscription(ctx context.Context, w http.ResponseWriter, eventType string, sub stripe.Subscription) {
	if sub.Customer == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		h.Log.Warn("webhook subscription missing customer or price",
			zap.String("event_type", eventType),
			zap.String("subscription_id", sub.ID))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// A subscription that is no longer collectible behaves like a delete.
	switch sub.Status {
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
		if err := h.Syncer.EndSubscription(ctx, sub.ID); err != nil && !errors.Is(err, billing.ErrNoMatch) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	err := h.Syncer.ApplySubscription(ctx, sub.Customer.ID, sub.ID, sub.Items.Data[0].Price.ID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, billing.ErrUnknownPrice):
		// Acknowledge so Stripe stops retrying something we will never map.
		h.Audit.WebhookRejected(ctx, "unmapped price", eventType)
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, billing.ErrNoMatch):
		h.Audit.WebhookRejected(ctx, "no matching church", eventType)
		w.WriteHeader(http.StatusOK)
	default:
		h.Log.Error("subscription sync failed", zap.Error(err), zap.String("subscription_id", sub.ID))
		w.WriteHeader(http.StatusInternalServerError)
	}
}
