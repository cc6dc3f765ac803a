package plans

import (
	"testing"

	"github.com/chapelware/chapelhub/internal/domain/models"
)

func TestLimit_Table(t *testing.T) {
	tests := []struct {
		plan string
		res  Resource
		want int64
	}{
		{models.PlanFree, Facilitators, 2},
		{models.PlanFree, Students, 20},
		{models.PlanFree, Programs, 1},
		{models.PlanFree, StorageBytes, 100 << 20},
		{models.PlanFree, MeetingIntegrations, 0},
		{models.PlanPro, Facilitators, 10},
		{models.PlanPro, Students, 250},
		{models.PlanPro, Programs, 10},
		{models.PlanPro, StorageBytes, 10 << 30},
		{models.PlanPro, MeetingIntegrations, 2},
		{models.PlanUnlimited, Facilitators, Unlimited},
		{models.PlanUnlimited, Students, Unlimited},
		{models.PlanUnlimited, Programs, Unlimited},
		{models.PlanUnlimited, StorageBytes, 100 << 30},
		{models.PlanUnlimited, MeetingIntegrations, Unlimited},
	}
	for _, tc := range tests {
		if got := Limit(tc.plan, tc.res); got != tc.want {
			t.Errorf("Limit(%q, %q) = %d, want %d", tc.plan, tc.res, got, tc.want)
		}
	}
}

func TestLimit_UnknownPlanFallsBackToFree(t *testing.T) {
	if got := Limit("enterprise", Facilitators); got != 2 {
		t.Errorf("unknown plan facilitators = %d, want free tier 2", got)
	}
	if got := Limit("", Programs); got != 1 {
		t.Errorf("empty plan programs = %d, want free tier 1", got)
	}
}

func TestLimit_UnknownResourceIsZero(t *testing.T) {
	if got := Limit(models.PlanPro, Resource("seats")); got != 0 {
		t.Errorf("unknown resource = %d, want 0", got)
	}
}

func TestHasFeature(t *testing.T) {
	tests := []struct {
		plan    string
		feature Feature
		want    bool
	}{
		{models.PlanFree, CustomBranding, false},
		{models.PlanFree, Certificates, false},
		{models.PlanPro, Certificates, true},
		{models.PlanPro, CustomBranding, false},
		{models.PlanPro, SMSNotifications, false},
		{models.PlanUnlimited, CustomBranding, true},
		{models.PlanUnlimited, Certificates, true},
		{models.PlanUnlimited, SMSNotifications, true},
		{"bogus", Certificates, false},
	}
	for _, tc := range tests {
		if got := HasFeature(tc.plan, tc.feature); got != tc.want {
			t.Errorf("HasFeature(%q, %q) = %v, want %v", tc.plan, tc.feature, got, tc.want)
		}
	}
}

func TestIsKnown(t *testing.T) {
	for _, plan := range []string{models.PlanFree, models.PlanPro, models.PlanUnlimited} {
		if !IsKnown(plan) {
			t.Errorf("IsKnown(%q) = false", plan)
		}
	}
	if IsKnown("enterprise") {
		t.Error("IsKnown(enterprise) = true, want false")
	}
}

func TestPriceMap(t *testing.T) {
	pm := NewPriceMap(map[string]string{
		"price_pro":   models.PlanPro,
		"price_unlim": models.PlanUnlimited,
		"price_bad":   "enterprise", // unknown plan, dropped
		"":            models.PlanPro,
	})

	if plan, ok := pm.PlanForPrice("price_pro"); !ok || plan != models.PlanPro {
		t.Errorf("PlanForPrice(price_pro) = %q, %v", plan, ok)
	}
	if plan, ok := pm.PlanForPrice("price_unlim"); !ok || plan != models.PlanUnlimited {
		t.Errorf("PlanForPrice(price_unlim) = %q, %v", plan, ok)
	}
	if _, ok := pm.PlanForPrice("price_bad"); ok {
		t.Error("price mapped to unknown plan should be dropped")
	}
	if _, ok := pm.PlanForPrice("price_other"); ok {
		t.Error("unknown price should not resolve")
	}

	if price, ok := pm.PriceForPlan(models.PlanPro); !ok || price != "price_pro" {
		t.Errorf("PriceForPlan(pro) = %q, %v", price, ok)
	}
	if _, ok := pm.PriceForPlan(models.PlanFree); ok {
		t.Error("free plan has no price")
	}
}
