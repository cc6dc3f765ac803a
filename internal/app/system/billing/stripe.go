// internal/app/system/billing/stripe.go
package billing

import (
	"context"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"go.uber.org/zap"
)

// Provider is the outbound payment-provider surface the billing feature
// needs. StripeProvider is the real implementation; tests supply fakes.
type Provider interface {
	CreateCustomer(ctx context.Context, church models.Church) (string, error)
	CheckoutURL(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	PortalURL(ctx context.Context, customerID, returnURL string) (string, error)
}

// StripeProvider calls Stripe's API for checkout and portal sessions.
type StripeProvider struct {
	logger *zap.Logger
}

// NewStripeProvider configures the Stripe SDK with the secret key.
func NewStripeProvider(apiKey string, logger *zap.Logger) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{logger: logger}
}

// CreateCustomer registers the church as a Stripe customer and returns the
// customer id. The church id travels in metadata so support can trace
// customers back to tenants.
func (p *StripeProvider) CreateCustomer(ctx context.Context, church models.Church) (string, error) {
	params := &stripe.CustomerParams{
		Name: stripe.String(church.Name),
	}
	params.Context = ctx
	params.AddMetadata("church_id", church.ID.Hex())
	params.AddMetadata("subdomain", church.Subdomain)

	cust, err := customer.New(params)
	if err != nil {
		p.logger.Error("stripe customer create failed",
			zap.String("church_id", church.ID.Hex()),
			zap.Error(err))
		return "", err
	}
	return cust.ID, nil
}

// CheckoutURL creates a subscription checkout session and returns its URL.
func (p *StripeProvider) CheckoutURL(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		p.logger.Error("stripe checkout session failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", err
	}
	return sess.URL, nil
}

// PortalURL creates a billing portal session so a church admin can manage
// the subscription at Stripe.
func (p *StripeProvider) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		p.logger.Error("stripe portal session failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", err
	}
	return sess.URL, nil
}
