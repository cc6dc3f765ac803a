package enrollments

import (
	"encoding/json"
	"fmt"
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

// classFixture creates a church with a program, course, and class in one call.
func classFixture(t *testing.T, fx *testutil.Fixtures, plan string, published, selfEnroll bool) (models.Church, models.Class) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Grace Chapel", "grace"+primitive.NewObjectID().Hex(), plan)
	program := fx.CreateProgram(ctx, church.ID, "Foundations", true)
	course := fx.CreateCourse(ctx, church.ID, program.ID, "Old Testament Survey")
	class := fx.CreateClass(ctx, church.ID, course.ID, "Fall Cohort", published, selfEnroll)
	return church, class
}

func TestServeSelfEnroll(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church, class := classFixture(t, fx, models.PlanPro, true, true)
	student := fx.CreateStudent(ctx, "Ana Reyes", "ana@example.com", church.ID)

	r := testutil.TenantRequest(http.MethodPost, "/self/"+class.ID.Hex(), "", church, testutil.TestUser{
		ID: student.ID.Hex(), Name: student.FullName, Email: student.Email, Role: models.RoleStudent, ChurchID: church.ID.Hex(),
	})
	r = testutil.WithChiURLParam(r, "classID", class.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeSelfEnroll(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var enr models.Enrollment
	if err := json.NewDecoder(w.Body).Decode(&enr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if enr.Status != models.EnrollmentEnrolled || enr.StudentID != student.ID || enr.ClassID != class.ID {
		t.Errorf("enrollment = %+v", enr)
	}
}

func TestServeSelfEnroll_Unauthenticated(t *testing.T) {
	h, fx := newTestHandler(t)

	church, class := classFixture(t, fx, models.PlanPro, true, true)

	r := testutil.NewRequest(http.MethodPost, "/self/"+class.ID.Hex(), "")
	r = testutil.WithTenant(r, church)
	r = testutil.WithChiURLParam(r, "classID", class.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeSelfEnroll(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestServeSelfEnroll_ClosedClass(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name       string
		published  bool
		selfEnroll bool
	}{
		{"unpublished", false, true},
		{"self enrollment disabled", true, false},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			church, class := classFixture(t, fx, models.PlanPro, tc.published, tc.selfEnroll)
			student := fx.CreateStudent(ctx, "Ana Reyes", fmt.Sprintf("ana%d@example.com", i), church.ID)

			r := testutil.TenantRequest(http.MethodPost, "/self/"+class.ID.Hex(), "", church, testutil.TestUser{
				ID: student.ID.Hex(), Role: models.RoleStudent, ChurchID: church.ID.Hex(),
			})
			r = testutil.WithChiURLParam(r, "classID", class.ID.Hex())
			w := httptest.NewRecorder()
			h.ServeSelfEnroll(w, r)

			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", w.Code)
			}
		})
	}
}

func TestServeSelfEnroll_DuplicateConflicts(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church, class := classFixture(t, fx, models.PlanPro, true, true)
	student := fx.CreateStudent(ctx, "Ana Reyes", "ana@example.com", church.ID)

	user := testutil.TestUser{ID: student.ID.Hex(), Role: models.RoleStudent, ChurchID: church.ID.Hex()}
	enroll := func() *httptest.ResponseRecorder {
		r := testutil.TenantRequest(http.MethodPost, "/self/"+class.ID.Hex(), "", church, user)
		r = testutil.WithChiURLParam(r, "classID", class.ID.Hex())
		w := httptest.NewRecorder()
		h.ServeSelfEnroll(w, r)
		return w
	}

	if w := enroll(); w.Code != http.StatusCreated {
		t.Fatalf("first enroll: status = %d: %s", w.Code, w.Body.String())
	}
	if w := enroll(); w.Code != http.StatusConflict {
		t.Errorf("second enroll: status = %d, want 409", w.Code)
	}
}

func TestServeSelfEnroll_QuotaFull(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Free plan caps at 20 distinct enrolled students.
	church, class := classFixture(t, fx, models.PlanFree, true, true)
	for i := 0; i < 20; i++ {
		s := fx.CreateStudent(ctx, fmt.Sprintf("Student %d", i), fmt.Sprintf("s%d@example.com", i), church.ID)
		fx.CreateEnrollment(ctx, church.ID, class.ID, s.ID)
	}
	overflow := fx.CreateStudent(ctx, "One Too Many", "late@example.com", church.ID)

	r := testutil.TenantRequest(http.MethodPost, "/self/"+class.ID.Hex(), "", church, testutil.TestUser{
		ID: overflow.ID.Hex(), Role: models.RoleStudent, ChurchID: church.ID.Hex(),
	})
	r = testutil.WithChiURLParam(r, "classID", class.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeSelfEnroll(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestServeSelfEnroll_AlreadyCountedStudentBypassesQuota(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Fill the free tier, then add a second class: an already-counted
	// student occupies no new slot and may keep enrolling.
	church, class := classFixture(t, fx, models.PlanFree, true, true)
	var first models.User
	for i := 0; i < 20; i++ {
		s := fx.CreateStudent(ctx, fmt.Sprintf("Student %d", i), fmt.Sprintf("s%d@example.com", i), church.ID)
		if i == 0 {
			first = s
		}
		fx.CreateEnrollment(ctx, church.ID, class.ID, s.ID)
	}
	program := fx.CreateProgram(ctx, church.ID, "Discipleship", true)
	course := fx.CreateCourse(ctx, church.ID, program.ID, "Prayer")
	second := fx.CreateClass(ctx, church.ID, course.ID, "Evening Cohort", true, true)

	r := testutil.TenantRequest(http.MethodPost, "/self/"+second.ID.Hex(), "", church, testutil.TestUser{
		ID: first.ID.Hex(), Role: models.RoleStudent, ChurchID: church.ID.Hex(),
	})
	r = testutil.WithChiURLParam(r, "classID", second.ID.Hex())
	w := httptest.NewRecorder()
	h.ServeSelfEnroll(w, r)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestServeAdminEnroll(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The self-enrollment gate does not apply to admin enrollment.
	church, class := classFixture(t, fx, models.PlanPro, true, false)
	student := fx.CreateStudent(ctx, "Ana Reyes", "ana@example.com", church.ID)

	body := fmt.Sprintf(`{"class_id":%q,"student_id":%q}`, class.ID.Hex(), student.ID.Hex())
	r := testutil.TenantRequest(http.MethodPost, "/", body, church, testutil.ChurchAdminUser(church.ID))
	w := httptest.NewRecorder()
	h.ServeAdminEnroll(w, r)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestServeAdminEnroll_StudentRequired(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church, class := classFixture(t, fx, models.PlanPro, true, true)
	facilitator := fx.CreateUser(ctx, "Sam Okafor", "sam@example.com", models.RoleFacilitator, &church.ID)

	body := fmt.Sprintf(`{"class_id":%q,"student_id":%q}`, class.ID.Hex(), facilitator.ID.Hex())
	r := testutil.TenantRequest(http.MethodPost, "/", body, church, testutil.ChurchAdminUser(church.ID))
	w := httptest.NewRecorder()
	h.ServeAdminEnroll(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServeAdminEnroll_CrossChurchClassHidden(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, foreignClass := classFixture(t, fx, models.PlanPro, true, true)
	home := fx.CreateChurch(ctx, "Hope Fellowship", "hopefellowship", models.PlanPro)
	student := fx.CreateStudent(ctx, "Ana Reyes", "ana@hope.example.com", home.ID)

	body := fmt.Sprintf(`{"class_id":%q,"student_id":%q}`, foreignClass.ID.Hex(), student.ID.Hex())
	r := testutil.TenantRequest(http.MethodPost, "/", body, home, testutil.ChurchAdminUser(home.ID))
	w := httptest.NewRecorder()
	h.ServeAdminEnroll(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

