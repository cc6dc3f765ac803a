package members

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	assetstore "github.com/chapelware/chapelhub/internal/app/store/assets"
	enrollmentstore "github.com/chapelware/chapelhub/internal/app/store/enrollments"
	integrationstore "github.com/chapelware/chapelhub/internal/app/store/integrations"
	programstore "github.com/chapelware/chapelhub/internal/app/store/programs"
	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/app/system/indexes"
	"github.com/chapelware/chapelhub/internal/app/system/quota"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/chapelware/chapelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	enforcer := quota.New(quota.StoreCounters{
		Users:        userstore.New(db),
		Enrollments:  enrollmentstore.New(db),
		Programs:     programstore.New(db),
		Assets:       assetstore.New(db),
		Integrations: integrationstore.New(db),
	})
	return NewHandler(db, nil, enforcer, zap.NewNop()), testutil.NewFixtures(t, db)
}

func invite(t *testing.T, h *Handler, church models.Church, admin testutil.TestUser, email string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"full_name": "Sam Pastor", "email": "` + email + `"}`
	r := testutil.TenantRequest(http.MethodPost, "/invitations", body, church, admin)
	w := httptest.NewRecorder()
	h.ServeInviteFacilitator(w, r)
	return w
}

// A pending invite holds a facilitator slot. Once the plan limit is reached
// between active members and outstanding invites, further invites are
// rejected, and claiming an invite does not free or exceed a slot.
func TestInviteFacilitatorSlotLimit(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "grace"+primitive.NewObjectID().Hex(), models.PlanFree)
	admin := testutil.ChurchAdminUser(church.ID)

	// Free plan: two facilitator slots. One already active.
	fx.CreateUser(ctx, "Lee Ortiz", "lee@example.com", models.RoleFacilitator, &church.ID)

	w := invite(t, h, church, admin, "sam@example.com")
	if w.Code != http.StatusCreated {
		t.Fatalf("first invite status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var res inviteResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Member.Status != models.UserInvited || res.InviteToken == "" {
		t.Fatalf("invite response = %+v", res)
	}

	// Both slots held (one active, one invited): the next invite is refused
	// even though only one facilitator has signed in.
	w = invite(t, h, church, admin, "pat@example.com")
	if w.Code != http.StatusForbidden {
		t.Fatalf("invite past limit status = %d, want 403: %s", w.Code, w.Body.String())
	}

	// Claiming converts the slot from invited to active without opening a
	// new one.
	users := userstore.New(h.DB)
	if err := users.ClaimInvite(ctx, res.Member.ID, res.InviteToken, "auth0|sam"); err != nil {
		t.Fatalf("ClaimInvite: %v", err)
	}
	w = invite(t, h, church, admin, "pat@example.com")
	if w.Code != http.StatusForbidden {
		t.Fatalf("invite after claim status = %d, want 403: %s", w.Code, w.Body.String())
	}

	n, err := users.CountSlotsByRole(ctx, church.ID, models.RoleFacilitator)
	if err != nil {
		t.Fatalf("CountSlotsByRole: %v", err)
	}
	if n != 2 {
		t.Errorf("facilitator slots = %d, want 2", n)
	}
}

func TestInviteFacilitatorForbiddenForFacilitator(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "grace"+primitive.NewObjectID().Hex(), models.PlanPro)

	w := invite(t, h, church, testutil.FacilitatorUser(church.ID), "sam@example.com")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
}
