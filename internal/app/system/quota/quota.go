// internal/app/system/quota/quota.go
//
// Package quota enforces plan limits on tenant mutations. Checks run a
// read-then-act sequence against live counts, so two concurrent mutations
// can both pass a check that either alone would fail; the resulting
// over-allocation is at most one resource and is tolerated. Enrollments are
// the exception: a partial unique index makes the insert itself the
// arbiter, so the students limit cannot be breached by racing enrolls of
// the same student.
package quota

import (
	"context"

	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Counters supplies the current usage for each limited resource. The store
// layer implements it; tests substitute fixed values.
type Counters interface {
	FacilitatorSlots(ctx context.Context, churchID primitive.ObjectID) (int64, error)
	DistinctEnrolledStudents(ctx context.Context, churchID primitive.ObjectID) (int64, error)
	PublishedPrograms(ctx context.Context, churchID primitive.ObjectID) (int64, error)
	StorageBytes(ctx context.Context, churchID primitive.ObjectID) (int64, error)
	MeetingIntegrations(ctx context.Context, churchID primitive.ObjectID) (int64, error)
}

// Result reports the outcome of a limit check.
type Result struct {
	Allowed bool
	Limit   int64 // plans.Unlimited when the plan has no cap
	Current int64
}

// Enforcer answers whether a church may consume one more unit of a
// resource under its current plan.
type Enforcer struct {
	counters Counters
}

func New(counters Counters) *Enforcer {
	return &Enforcer{counters: counters}
}

// Check reports whether the church can add `delta` more units of the
// resource. For counted resources delta is normally 1; for storage it is
// the byte size of the incoming upload. An unknown plan falls back to the
// free tier inside the plan catalog.
func (e *Enforcer) Check(ctx context.Context, church models.Church, resource plans.Resource, delta int64) (Result, error) {
	limit := plans.Limit(church.Plan, resource)
	if limit == plans.Unlimited {
		return Result{Allowed: true, Limit: plans.Unlimited}, nil
	}

	current, err := e.current(ctx, church.ID, resource)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed: current+delta <= limit,
		Limit:   limit,
		Current: current,
	}, nil
}

// CheckOne is Check with a delta of one unit.
func (e *Enforcer) CheckOne(ctx context.Context, church models.Church, resource plans.Resource) (Result, error) {
	return e.Check(ctx, church, resource, 1)
}

func (e *Enforcer) current(ctx context.Context, churchID primitive.ObjectID, resource plans.Resource) (int64, error) {
	switch resource {
	case plans.Facilitators:
		return e.counters.FacilitatorSlots(ctx, churchID)
	case plans.Students:
		return e.counters.DistinctEnrolledStudents(ctx, churchID)
	case plans.Programs:
		return e.counters.PublishedPrograms(ctx, churchID)
	case plans.StorageBytes:
		return e.counters.StorageBytes(ctx, churchID)
	case plans.MeetingIntegrations:
		return e.counters.MeetingIntegrations(ctx, churchID)
	}
	return 0, nil
}
