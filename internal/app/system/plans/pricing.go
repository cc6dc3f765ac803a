package plans

import "github.com/chapelware/chapelhub/internal/domain/models"

// PriceMap maps Stripe price identifiers to internal plan tiers. Configured
// once at startup from app config; subscription reconciliation consults it
// and keeps the existing plan when a price is unrecognized.
type PriceMap struct {
	byPrice map[string]string
}

// NewPriceMap builds a price → plan mapping. Entries with unknown plan
// names are dropped.
func NewPriceMap(entries map[string]string) *PriceMap {
	m := make(map[string]string, len(entries))
	for price, plan := range entries {
		if price != "" && IsKnown(plan) {
			m[price] = plan
		}
	}
	return &PriceMap{byPrice: m}
}

// PlanForPrice resolves a Stripe price id to an internal plan.
// ok=false means the price is not one of ours.
func (p *PriceMap) PlanForPrice(priceID string) (string, bool) {
	plan, ok := p.byPrice[priceID]
	return plan, ok
}

// PriceForPlan returns the first configured price id for a paid plan, for
// building checkout sessions. ok=false for free or unmapped plans.
func (p *PriceMap) PriceForPlan(plan string) (string, bool) {
	if plan == models.PlanFree {
		return "", false
	}
	for price, pl := range p.byPrice {
		if pl == plan {
			return price, true
		}
	}
	return "", false
}
