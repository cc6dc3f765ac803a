package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixedCounters struct {
	facilitators int64
	students     int64
	programs     int64
	storage      int64
	integrations int64
	err          error
}

func (c fixedCounters) FacilitatorSlots(ctx context.Context, _ primitive.ObjectID) (int64, error) {
	return c.facilitators, c.err
}

func (c fixedCounters) DistinctEnrolledStudents(ctx context.Context, _ primitive.ObjectID) (int64, error) {
	return c.students, c.err
}

func (c fixedCounters) PublishedPrograms(ctx context.Context, _ primitive.ObjectID) (int64, error) {
	return c.programs, c.err
}

func (c fixedCounters) StorageBytes(ctx context.Context, _ primitive.ObjectID) (int64, error) {
	return c.storage, c.err
}

func (c fixedCounters) MeetingIntegrations(ctx context.Context, _ primitive.ObjectID) (int64, error) {
	return c.integrations, c.err
}

func church(plan string) models.Church {
	return models.Church{ID: primitive.NewObjectID(), Plan: plan}
}

func TestCheckOne_FreePlanBoundaries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		counters fixedCounters
		resource plans.Resource
		allowed  bool
	}{
		{"facilitators under limit", fixedCounters{facilitators: 1}, plans.Facilitators, true},
		{"facilitators at limit", fixedCounters{facilitators: 2}, plans.Facilitators, false},
		{"students under limit", fixedCounters{students: 19}, plans.Students, true},
		{"students at limit", fixedCounters{students: 20}, plans.Students, false},
		{"programs empty", fixedCounters{programs: 0}, plans.Programs, true},
		{"programs at limit", fixedCounters{programs: 1}, plans.Programs, false},
		{"integrations always full on free", fixedCounters{integrations: 0}, plans.MeetingIntegrations, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := New(tc.counters)
			res, err := e.CheckOne(ctx, church(models.PlanFree), tc.resource)
			if err != nil {
				t.Fatalf("CheckOne: %v", err)
			}
			if res.Allowed != tc.allowed {
				t.Errorf("Allowed = %v, want %v (limit=%d current=%d)", res.Allowed, tc.allowed, res.Limit, res.Current)
			}
		})
	}
}

func TestCheck_StorageDelta(t *testing.T) {
	ctx := context.Background()
	// Free plan allows 100 MiB of storage.
	used := int64(90 << 20)
	e := New(fixedCounters{storage: used})

	res, err := e.Check(ctx, church(models.PlanFree), plans.StorageBytes, 10<<20)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Allowed {
		t.Errorf("upload filling the cap exactly should be allowed (limit=%d)", res.Limit)
	}

	res, err = e.Check(ctx, church(models.PlanFree), plans.StorageBytes, 10<<20+1)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Allowed {
		t.Error("upload past the cap should be denied")
	}
	if res.Current != used {
		t.Errorf("Current = %d, want %d", res.Current, used)
	}
}

func TestCheck_UnlimitedSkipsCounters(t *testing.T) {
	ctx := context.Background()
	// The counter errors, proving unlimited resources never consult it.
	e := New(fixedCounters{err: errors.New("db down")})

	res, err := e.CheckOne(ctx, church(models.PlanUnlimited), plans.Facilitators)
	if err != nil {
		t.Fatalf("CheckOne: %v", err)
	}
	if !res.Allowed || res.Limit != plans.Unlimited {
		t.Errorf("got %+v, want allowed with unlimited limit", res)
	}
}

func TestCheck_UnknownPlanUsesFreeTier(t *testing.T) {
	ctx := context.Background()
	e := New(fixedCounters{facilitators: 2})

	res, err := e.CheckOne(ctx, church("legacy_gold"), plans.Facilitators)
	if err != nil {
		t.Fatalf("CheckOne: %v", err)
	}
	if res.Allowed {
		t.Error("unknown plan should inherit free tier caps")
	}
	if res.Limit != 2 {
		t.Errorf("Limit = %d, want 2", res.Limit)
	}
}

func TestCheck_CounterErrorPropagates(t *testing.T) {
	ctx := context.Background()
	want := errors.New("count failed")
	e := New(fixedCounters{err: want})

	_, err := e.CheckOne(ctx, church(models.PlanFree), plans.Students)
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}
