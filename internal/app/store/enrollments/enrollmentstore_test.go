package enrollmentstore

import (
	"errors"
	"testing"

	"github.com/chapelware/chapelhub/internal/app/system/indexes"
	"github.com/chapelware/chapelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return New(db)
}

func TestEnroll(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	classID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()

	enr, err := store.Enroll(ctx, churchID, classID, studentID)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if enr.EnrolledAt.IsZero() || enr.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: enrolled_at=%v updated_at=%v", enr.EnrolledAt, enr.UpdatedAt)
	}

	got, err := store.Get(ctx, churchID, classID, studentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.EnrolledAt.IsZero() {
		t.Error("stored enrollment has zero enrolled_at")
	}

	if _, err := store.Enroll(ctx, churchID, classID, studentID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("duplicate: err = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestDropThenReenroll(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	classID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()

	if _, err := store.Enroll(ctx, churchID, classID, studentID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := store.Drop(ctx, churchID, classID, studentID); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	// A second drop has nothing active to match.
	if err := store.Drop(ctx, churchID, classID, studentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second drop: err = %v, want ErrNotFound", err)
	}
	// The partial index only covers active records, so re-enrolling works.
	if _, err := store.Enroll(ctx, churchID, classID, studentID); err != nil {
		t.Errorf("re-enroll after drop: %v", err)
	}
}
