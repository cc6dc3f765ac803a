package authz

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func requestWith(role string, churchID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Tester",
		Role:     role,
		ChurchID: churchID,
	})
}

func tenantInfo(id primitive.ObjectID) *tenant.Info {
	return &tenant.Info{ID: id, Subdomain: "gracechapel", Plan: models.PlanFree, Status: models.ChurchActive}
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := Authorize(r, tenantInfo(primitive.NewObjectID()), ActionContentView)
	if !errors.Is(err, httperr.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthorize_GrantMatrix(t *testing.T) {
	churchID := primitive.NewObjectID()
	tn := tenantInfo(churchID)

	tests := []struct {
		role    string
		action  Action
		allowed bool
	}{
		{models.RoleStudent, ActionContentView, true},
		{models.RoleStudent, ActionEnrollSelf, true},
		{models.RoleStudent, ActionProgramManage, false},
		{models.RoleStudent, ActionEnrollManage, false},
		{models.RoleStudent, ActionMemberManage, false},
		{models.RoleStudent, ActionBillingManage, false},

		{models.RoleFacilitator, ActionContentView, true},
		{models.RoleFacilitator, ActionClassManage, true},
		{models.RoleFacilitator, ActionEnrollManage, true},
		{models.RoleFacilitator, ActionAssetManage, true},
		{models.RoleFacilitator, ActionEnrollSelf, false},
		{models.RoleFacilitator, ActionProgramManage, false},
		{models.RoleFacilitator, ActionMemberManage, false},
		{models.RoleFacilitator, ActionIntegrationManage, false},

		{models.RoleChurchAdmin, ActionProgramManage, true},
		{models.RoleChurchAdmin, ActionCourseManage, true},
		{models.RoleChurchAdmin, ActionClassManage, true},
		{models.RoleChurchAdmin, ActionMemberManage, true},
		{models.RoleChurchAdmin, ActionIntegrationManage, true},
		{models.RoleChurchAdmin, ActionBillingManage, true},
		{models.RoleChurchAdmin, ActionSettingsManage, true},
		{models.RoleChurchAdmin, ActionAuditView, true},
		{models.RoleChurchAdmin, ActionEnrollSelf, false},
	}
	for _, tc := range tests {
		r := requestWith(tc.role, churchID.Hex())
		err := Authorize(r, tn, tc.action)
		if tc.allowed && err != nil {
			t.Errorf("%s on %s: err = %v, want nil", tc.role, tc.action, err)
		}
		if !tc.allowed && !errors.Is(err, httperr.ErrForbidden) {
			t.Errorf("%s on %s: err = %v, want ErrForbidden", tc.role, tc.action, err)
		}
	}
}

func TestAuthorize_CrossTenantDenied(t *testing.T) {
	homeChurch := primitive.NewObjectID()
	otherChurch := primitive.NewObjectID()

	r := requestWith(models.RoleChurchAdmin, homeChurch.Hex())
	err := Authorize(r, tenantInfo(otherChurch), ActionProgramManage)
	if !errors.Is(err, httperr.ErrForbidden) {
		t.Errorf("cross-tenant admin: err = %v, want ErrForbidden", err)
	}
}

func TestAuthorize_TenantActionWithoutTenant(t *testing.T) {
	r := requestWith(models.RoleChurchAdmin, primitive.NewObjectID().Hex())
	err := Authorize(r, nil, ActionProgramManage)
	if !errors.Is(err, httperr.ErrForbidden) {
		t.Errorf("nil tenant: err = %v, want ErrForbidden", err)
	}
}

func TestAuthorize_SuperAdminPlatformOnly(t *testing.T) {
	churchID := primitive.NewObjectID()

	// Platform actions succeed without a tenant.
	r := requestWith(models.RoleSuperAdmin, "")
	for _, action := range []Action{ActionPlatformSettings, ActionPlatformAudit, ActionChurchProvision} {
		if err := Authorize(r, nil, action); err != nil {
			t.Errorf("superadmin on %s: err = %v, want nil", action, err)
		}
	}

	// Tenant actions are denied even with a live tenant.
	if err := Authorize(r, tenantInfo(churchID), ActionProgramManage); !errors.Is(err, httperr.ErrForbidden) {
		t.Errorf("superadmin tenant action: err = %v, want ErrForbidden", err)
	}

	// A church-scoped caller never gets platform actions.
	admin := requestWith(models.RoleChurchAdmin, churchID.Hex())
	if err := Authorize(admin, nil, ActionPlatformSettings); !errors.Is(err, httperr.ErrForbidden) {
		t.Errorf("church admin platform action: err = %v, want ErrForbidden", err)
	}
}

func TestAuthorizeSelfOrAdmin(t *testing.T) {
	churchID := primitive.NewObjectID()
	tn := tenantInfo(churchID)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	selfID := primitive.NewObjectID()
	r = auth.WithTestUser(r, &auth.SessionUser{
		ID:       selfID.Hex(),
		Role:     models.RoleStudent,
		ChurchID: churchID.Hex(),
	})

	// A student can act on their own record.
	if err := AuthorizeSelfOrAdmin(r, tn, ActionEnrollManage, selfID); err != nil {
		t.Errorf("self: err = %v, want nil", err)
	}
	// But not on someone else's.
	if err := AuthorizeSelfOrAdmin(r, tn, ActionEnrollManage, primitive.NewObjectID()); !errors.Is(err, httperr.ErrForbidden) {
		t.Errorf("other: err = %v, want ErrForbidden", err)
	}

	// Admins fall back to the action table.
	admin := requestWith(models.RoleChurchAdmin, churchID.Hex())
	if err := AuthorizeSelfOrAdmin(admin, tn, ActionEnrollManage, primitive.NewObjectID()); err != nil {
		t.Errorf("admin: err = %v, want nil", err)
	}
}

func TestUserCtx(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	role, _, _, _, ok := UserCtx(r)
	if ok || role != "visitor" {
		t.Errorf("anonymous: role=%q ok=%v, want visitor/false", role, ok)
	}

	churchID := primitive.NewObjectID()
	r = requestWith("Church_Admin", churchID.Hex())
	role, _, _, gotChurch, ok := UserCtx(r)
	if !ok || role != models.RoleChurchAdmin || gotChurch != churchID {
		t.Errorf("got role=%q church=%s ok=%v", role, gotChurch.Hex(), ok)
	}

	// Malformed session ids fail closed.
	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad = auth.WithTestUser(bad, &auth.SessionUser{ID: "garbage", Role: models.RoleStudent})
	if _, _, _, _, ok := UserCtx(bad); ok {
		t.Error("malformed user id: ok = true, want false")
	}
}
