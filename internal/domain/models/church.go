package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan tiers. The plan catalog (internal/app/system/plans) maps these to
// numeric limits and feature flags.
const (
	PlanFree      = "free"
	PlanPro       = "pro"
	PlanUnlimited = "unlimited"
)

// Church statuses.
const (
	ChurchActive    = "active"
	ChurchSuspended = "suspended"
)

// Church is the tenant aggregate root. Every Program, Course, Class,
// Enrollment, Asset, Integration, and non-superadmin User belongs to exactly
// one church via its church_id field, and requests are scoped to a church
// resolved from edge-injected subdomain metadata.
type Church struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped

	// Subdomain for this church (e.g. "gracechapel" for
	// gracechapel.chapelhub.app). Unique across all churches.
	Subdomain string `bson:"subdomain" json:"subdomain"`

	// Billing state. Plan is the internal tier; the Stripe identifiers are
	// empty until the first checkout completes and are the lookup keys used
	// by webhook reconciliation.
	Plan                 string `bson:"plan" json:"plan"`
	StripeCustomerID     string `bson:"stripe_customer_id,omitempty" json:"-"`
	StripeSubscriptionID string `bson:"stripe_subscription_id,omitempty" json:"-"`

	// Status: "active" or "suspended". Suspended churches reject all
	// tenant-scoped requests.
	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the church accepts tenant-scoped requests.
func (c Church) IsActive() bool {
	return c.Status == ChurchActive
}
