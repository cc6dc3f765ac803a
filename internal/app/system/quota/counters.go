// internal/app/system/quota/counters.go
package quota

import (
	"context"

	assetstore "github.com/chapelware/chapelhub/internal/app/store/assets"
	enrollmentstore "github.com/chapelware/chapelhub/internal/app/store/enrollments"
	integrationstore "github.com/chapelware/chapelhub/internal/app/store/integrations"
	programstore "github.com/chapelware/chapelhub/internal/app/store/programs"
	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreCounters implements Counters over the Mongo stores.
type StoreCounters struct {
	Users        *userstore.Store
	Enrollments  *enrollmentstore.Store
	Programs     *programstore.Store
	Assets       *assetstore.Store
	Integrations *integrationstore.Store
}

func (c StoreCounters) FacilitatorSlots(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return c.Users.CountSlotsByRole(ctx, churchID, models.RoleFacilitator)
}

func (c StoreCounters) DistinctEnrolledStudents(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return c.Enrollments.CountDistinctEnrolledStudents(ctx, churchID)
}

func (c StoreCounters) PublishedPrograms(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return c.Programs.CountPublished(ctx, churchID)
}

func (c StoreCounters) StorageBytes(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return c.Assets.TotalBytes(ctx, churchID)
}

func (c StoreCounters) MeetingIntegrations(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return c.Integrations.CountByChurch(ctx, churchID)
}
