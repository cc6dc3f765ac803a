// Package plans is the static plan catalog: the single source of truth for
// what each billing tier allows. It is an immutable in-memory table loaded
// at compile time; there is no runtime mutation and no storage dependency.
package plans

import "github.com/chapelware/chapelhub/internal/domain/models"

// Resource identifies a countable quota kind.
type Resource string

const (
	Facilitators        Resource = "facilitators"
	Students            Resource = "students"
	Programs            Resource = "programs"
	StorageBytes        Resource = "storage_bytes"
	MeetingIntegrations Resource = "meeting_integrations"
)

// Feature identifies a boolean plan capability with no numeric count.
type Feature string

const (
	CustomBranding   Feature = "custom_branding"
	Certificates     Feature = "certificates"
	SMSNotifications Feature = "sms_notifications"
)

// Unlimited is the sentinel for unbounded limits. It is distinct from every
// finite count; comparisons against Unlimited always pass.
const Unlimited int64 = -1

// limits defines the per-tier resource caps.
//
//	| Plan      | Facilitators | Students | Programs | Storage | Integrations |
//	|-----------|--------------|----------|----------|---------|--------------|
//	| free      | 2            | 20       | 1        | 100 MB  | 0            |
//	| pro       | 10           | 250      | 10       | 10 GB   | 2            |
//	| unlimited | ∞            | ∞        | ∞        | 100 GB  | ∞            |
var limits = map[string]map[Resource]int64{
	models.PlanFree: {
		Facilitators:        2,
		Students:            20,
		Programs:            1,
		StorageBytes:        100 << 20,
		MeetingIntegrations: 0,
	},
	models.PlanPro: {
		Facilitators:        10,
		Students:            250,
		Programs:            10,
		StorageBytes:        10 << 30,
		MeetingIntegrations: 2,
	},
	models.PlanUnlimited: {
		Facilitators:        Unlimited,
		Students:            Unlimited,
		Programs:            Unlimited,
		StorageBytes:        100 << 30,
		MeetingIntegrations: Unlimited,
	},
}

var features = map[string]map[Feature]bool{
	models.PlanFree: {},
	models.PlanPro: {
		Certificates: true,
	},
	models.PlanUnlimited: {
		CustomBranding:   true,
		Certificates:     true,
		SMSNotifications: true,
	},
}

// Limit returns the numeric cap for a resource under the given plan.
// Unknown plans fall back to the free tier so enforcement fails safe.
func Limit(plan string, res Resource) int64 {
	tier, ok := limits[plan]
	if !ok {
		tier = limits[models.PlanFree]
	}
	n, ok := tier[res]
	if !ok {
		return 0
	}
	return n
}

// HasFeature reports whether the plan carries the given boolean feature.
// Unknown plans fall back to the free tier.
func HasFeature(plan string, f Feature) bool {
	tier, ok := features[plan]
	if !ok {
		tier = features[models.PlanFree]
	}
	return tier[f]
}

// IsKnown reports whether the plan name is a recognized tier.
func IsKnown(plan string) bool {
	_, ok := limits[plan]
	return ok
}
