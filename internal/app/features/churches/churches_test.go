package churches

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	"github.com/chapelware/chapelhub/internal/app/system/indexes"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/chapelware/chapelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestSubdomainPattern(t *testing.T) {
	valid := []string{"gracechapel", "grace-chapel", "a1", "first-baptist-2"}
	invalid := []string{"", "a", "-grace", "grace-", "Grace", "grace_chapel", "grace chapel"}

	for _, s := range valid {
		if !subdomainPattern.MatchString(s) {
			t.Errorf("%q rejected, want accepted", s)
		}
	}
	for _, s := range invalid {
		if subdomainPattern.MatchString(s) {
			t.Errorf("%q accepted, want rejected", s)
		}
	}
}

func TestServeProvision_Unauthenticated(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	r := testutil.NewRequest(http.MethodPost, "/", `{"name":"Grace Chapel","subdomain":"gracechapel"}`)
	w := httptest.NewRecorder()
	h.ServeProvision(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestServeProvision_ChurchAdminForbidden(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	r := testutil.NewRequest(http.MethodPost, "/", `{"name":"Grace Chapel","subdomain":"gracechapel"}`)
	r = testutil.WithUser(r, testutil.ChurchAdminUser(primitive.NewObjectID()))
	w := httptest.NewRecorder()
	h.ServeProvision(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestServeProvision_InvalidInput(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	bodies := []string{
		`{"name":"","subdomain":"gracechapel"}`,
		`{"name":"Grace Chapel","subdomain":"-bad-"}`,
		`{"name":"Grace Chapel","subdomain":"UPPER"}`,
		`not json`,
	}
	for _, body := range bodies {
		r := testutil.NewRequest(http.MethodPost, "/", body)
		r = testutil.WithUser(r, testutil.SuperAdminUser())
		w := httptest.NewRecorder()
		h.ServeProvision(w, r)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestServeProvision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	h := &Handler{DB: db, Log: zap.NewNop()}

	provision := func() *httptest.ResponseRecorder {
		r := testutil.NewRequest(http.MethodPost, "/", `{"name":"Grace Chapel","subdomain":"gracechapel"}`)
		r = testutil.WithUser(r, testutil.SuperAdminUser())
		w := httptest.NewRecorder()
		h.ServeProvision(w, r)
		return w
	}

	if w := provision(); w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	got, err := churchstore.New(db).GetBySubdomain(ctx, "gracechapel")
	if err != nil {
		t.Fatalf("GetBySubdomain: %v", err)
	}
	if got.Plan != models.PlanFree || got.Status != models.ChurchActive {
		t.Errorf("plan=%q status=%q, want free/active", got.Plan, got.Status)
	}

	// Taken subdomains conflict.
	if w := provision(); w.Code != http.StatusConflict {
		t.Errorf("duplicate subdomain: status = %d, want 409", w.Code)
	}
}

func TestServeSetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	h := &Handler{DB: db, Log: zap.NewNop()}

	church := fx.CreateChurch(ctx, "Grace Chapel", "gracechapel", models.PlanFree)

	r := testutil.NewRequest(http.MethodPost, fmt.Sprintf("/%s/suspend", church.ID.Hex()), "")
	r = testutil.WithUser(r, testutil.SuperAdminUser())
	r = testutil.WithChiURLParam(r, "churchID", church.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeSetStatus(models.ChurchSuspended)(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got, err := churchstore.New(db).GetByID(ctx, church.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.ChurchSuspended {
		t.Errorf("Status = %q, want suspended", got.Status)
	}
}
