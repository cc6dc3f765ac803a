package userstore

import (
	"errors"
	"testing"

	"github.com/chapelware/chapelhub/internal/app/system/indexes"
	"github.com/chapelware/chapelhub/internal/domain/models"
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

func TestCreate_DuplicateEmailInChurch(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	first := models.User{FullName: "Ana Reyes", Email: "Ana@Example.com", ChurchID: &churchID, Role: models.RoleStudent}
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same address differing only in case collides on the folded field.
	dup := models.User{FullName: "Another Ana", Email: "ana@example.com", ChurchID: &churchID, Role: models.RoleStudent}
	if _, err := store.Create(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}

	// The same address in a different church is fine.
	otherChurch := primitive.NewObjectID()
	other := models.User{FullName: "Ana Reyes", Email: "ana@example.com", ChurchID: &otherChurch, Role: models.RoleStudent}
	if _, err := store.Create(ctx, other); err != nil {
		t.Errorf("other church: %v", err)
	}
}

func TestClaimInvite(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	invited, err := store.CreateInvited(ctx, models.User{
		FullName: "Sam Okafor",
		Email:    "sam@example.com",
		ChurchID: &churchID,
		Role:     models.RoleFacilitator,
	}, "invite-token-123")
	if err != nil {
		t.Fatalf("CreateInvited: %v", err)
	}
	if invited.Status != models.UserInvited {
		t.Fatalf("Status = %q, want invited", invited.Status)
	}

	if err := store.ClaimInvite(ctx, invited.ID, "wrong-token", "subj-1"); !errors.Is(err, ErrBadInviteToken) {
		t.Errorf("wrong token: err = %v, want ErrBadInviteToken", err)
	}

	if err := store.ClaimInvite(ctx, invited.ID, "invite-token-123", "subj-1"); err != nil {
		t.Fatalf("ClaimInvite: %v", err)
	}

	got, err := store.GetByID(ctx, invited.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.UserActive || got.SubjectID != "subj-1" {
		t.Errorf("after claim: status=%q subject=%q", got.Status, got.SubjectID)
	}
	if got.InviteTokenHash != "" {
		t.Error("invite token hash survived the claim")
	}

	// A claimed invite cannot be claimed again.
	if err := store.ClaimInvite(ctx, invited.ID, "invite-token-123", "subj-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second claim: err = %v, want ErrNotFound", err)
	}
}

func TestSetSubjectID_BindsOnce(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "Platform Operator",
		Email:    "ops@example.com",
		Role:     models.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.SetSubjectID(ctx, created.ID, "subj-ops"); err != nil {
		t.Fatalf("SetSubjectID: %v", err)
	}
	if err := store.SetSubjectID(ctx, created.ID, "subj-hijack"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rebind: err = %v, want ErrNotFound", err)
	}

	got, err := store.GetBySubjectID(ctx, "subj-ops")
	if err != nil {
		t.Fatalf("GetBySubjectID: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetBySubjectID returned %s, want %s", got.ID.Hex(), created.ID.Hex())
	}
}

func TestGetPlatformByEmail_IgnoresChurchUsers(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	if _, err := store.Create(ctx, models.User{
		FullName: "Church Ana",
		Email:    "ana@example.com",
		ChurchID: &churchID,
		Role:     models.RoleStudent,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := store.GetPlatformByEmail(ctx, "ana@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("church-scoped user matched platform lookup: err = %v", err)
	}

	platform, err := store.Create(ctx, models.User{
		FullName: "Platform Ana",
		Email:    "ana@example.com",
		Role:     models.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("Create platform user: %v", err)
	}

	got, err := store.GetPlatformByEmail(ctx, "Ana@Example.com")
	if err != nil {
		t.Fatalf("GetPlatformByEmail: %v", err)
	}
	if got.ID != platform.ID {
		t.Errorf("got %s, want %s", got.ID.Hex(), platform.ID.Hex())
	}
}
