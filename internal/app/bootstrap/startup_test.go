package bootstrap

import (
	"testing"

	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/chapelware/chapelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureSuperAdmin_CreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{ChapelHubMongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "ops@example.com", "Platform Operator", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	got, err := userstore.New(db).GetPlatformByEmail(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("GetPlatformByEmail: %v", err)
	}
	if got.Role != models.RoleSuperAdmin || got.Status != models.UserActive {
		t.Errorf("role=%q status=%q", got.Role, got.Status)
	}
	if got.ChurchID != nil {
		t.Errorf("superadmin has church %s", got.ChurchID.Hex())
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	existing, err := users.Create(ctx, models.User{
		FullName: "Future Operator",
		Email:    "ops@example.com",
		Role:     models.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deps := DBDeps{ChapelHubMongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "ops@example.com", "Platform Operator", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	got, err := users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RoleSuperAdmin {
		t.Errorf("Role = %q, want super_admin", got.Role)
	}
}

func TestEnsureSuperAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{ChapelHubMongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := ensureSuperAdmin(ctx, deps, "ops@example.com", "Platform Operator", zap.NewNop()); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	n, err := userstore.New(db).Count(ctx, bson.M{"email_ci": "ops@example.com"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("superadmin count = %d, want 1", n)
	}
}
