package programs

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
	"github.com/chapelware/chapelhub/internal/app/system/quota"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/chapelware/chapelhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	enforcer := quota.New(quota.StoreCounters{
		Users:        userstore.New(db),
		Enrollments:  enrollmentstore.New(db),
		Programs:     programstore.New(db),
		Assets:       assetstore.New(db),
		Integrations: integrationstore.New(db),
	})
	return NewHandler(db, nil, enforcer, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeList_Unauthenticated(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)

	r := testutil.NewRequest(http.MethodGet, "/", "")
	r = testutil.WithTenant(r, church)
	w := httptest.NewRecorder()
	h.ServeList(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestServeList_PublishedFilterByRole(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanPro)
	fx.CreateProgram(ctx, church.ID, "Foundations", true)
	fx.CreateProgram(ctx, church.ID, "Draft Curriculum", false)

	count := func(user testutil.TestUser) int {
		r := testutil.TenantRequest(http.MethodGet, "/", "", church, user)
		w := httptest.NewRecorder()
		h.ServeList(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Programs []models.Program `json:"programs"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return len(resp.Programs)
	}

	if got := count(testutil.StudentUser(church.ID)); got != 1 {
		t.Errorf("student sees %d programs, want 1", got)
	}
	if got := count(testutil.ChurchAdminUser(church.ID)); got != 2 {
		t.Errorf("admin sees %d programs, want 2", got)
	}
}

func TestServeGet_CrossTenantHidden(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanPro)
	program := fx.CreateProgram(ctx, owner.ID, "Foundations", true)
	other := fx.CreateChurch(ctx, "Hope Fellowship", "hopefellowship", models.PlanPro)

	r := testutil.TenantRequest(http.MethodGet, "/"+program.ID.Hex(), "", other, testutil.ChurchAdminUser(other.ID))
	r = testutil.WithChiURLParam(r, "programID", program.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeGet(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServeGet_UnpublishedHiddenFromStudents(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanPro)
	draft := fx.CreateProgram(ctx, church.ID, "Draft Curriculum", false)

	r := testutil.TenantRequest(http.MethodGet, "/"+draft.ID.Hex(), "", church, testutil.StudentUser(church.ID))
	r = testutil.WithChiURLParam(r, "programID", draft.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeGet(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("student: status = %d, want 404", w.Code)
	}

	r = testutil.TenantRequest(http.MethodGet, "/"+draft.ID.Hex(), "", church, testutil.ChurchAdminUser(church.ID))
	r = testutil.WithChiURLParam(r, "programID", draft.ID.Hex())
	w = httptest.NewRecorder()
	h.ServeGet(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", w.Code)
	}
}

func TestServeGet_MalformedID(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)

	r := testutil.TenantRequest(http.MethodGet, "/not-an-id", "", church, testutil.StudentUser(church.ID))
	r = testutil.WithChiURLParam(r, "programID", "not-an-id")
	w := httptest.NewRecorder()
	h.ServeGet(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

