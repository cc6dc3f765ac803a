// internal/app/system/billing/sync.go
//
// Package billing keeps each church's plan in line with its subscription at
// the payment provider. The provider is the source of truth; webhook events
// drive one-way sync into the churches collection.
package billing

import (
	"context"
	"errors"

	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	"github.com/chapelware/chapelhub/internal/app/system/auditlog"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"go.uber.org/zap"
)

var (
	// ErrUnknownPrice means the event's price id is not in the configured
	// price map. The webhook acknowledges these so the provider stops
	// retrying, but nothing is applied.
	ErrUnknownPrice = errors.New("price id not mapped to a plan")

	// ErrNoMatch means no church matched the event's customer or
	// subscription. Either the checkout never completed here or the event
	// is a stale retry; both are safe no-ops.
	ErrNoMatch = errors.New("no church matches billing event")
)

// Syncer applies provider subscription state to churches. All methods are
// idempotent: replaying an event yields the state the event describes.
type Syncer struct {
	churches *churchstore.Store
	prices   *plans.PriceMap
	audit    *auditlog.Logger
	logger   *zap.Logger
}

func NewSyncer(churches *churchstore.Store, prices *plans.PriceMap, audit *auditlog.Logger, logger *zap.Logger) *Syncer {
	return &Syncer{churches: churches, prices: prices, audit: audit, logger: logger}
}

// ApplySubscription records an active subscription: the church keyed by the
// stripe customer id gets the plan mapped from the price, plus the
// subscription id. Replays and out-of-order retries converge on the same
// document state.
func (s *Syncer) ApplySubscription(ctx context.Context, customerID, subscriptionID, priceID string) error {
	plan, ok := s.prices.PlanForPrice(priceID)
	if !ok {
		s.logger.Warn("subscription event with unmapped price",
			zap.String("price_id", priceID),
			zap.String("customer_id", customerID))
		return ErrUnknownPrice
	}

	church, err := s.churches.GetByStripeCustomerID(ctx, customerID)
	if err == churchstore.ErrNotFound {
		return ErrNoMatch
	}
	if err != nil {
		return err
	}

	matched, err := s.churches.ApplyBilling(ctx, customerID, subscriptionID, plan)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNoMatch
	}

	s.logger.Info("subscription synced",
		zap.String("church_id", church.ID.Hex()),
		zap.String("plan", plan),
		zap.String("subscription_id", subscriptionID))
	s.audit.SubscriptionSynced(ctx, church.ID, plan, subscriptionID)
	return nil
}

// EndSubscription downgrades the church holding the subscription to the
// free plan and clears the stored subscription id. A replay finds no
// matching church and is a no-op.
func (s *Syncer) EndSubscription(ctx context.Context, subscriptionID string) error {
	church, err := s.churches.GetByStripeSubscriptionID(ctx, subscriptionID)
	if err == churchstore.ErrNotFound {
		return ErrNoMatch
	}
	if err != nil {
		return err
	}

	matched, err := s.churches.ClearSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNoMatch
	}

	s.logger.Info("subscription ended",
		zap.String("church_id", church.ID.Hex()),
		zap.String("subscription_id", subscriptionID))
	s.audit.SubscriptionEnded(ctx, church.ID, subscriptionID)
	return nil
}
