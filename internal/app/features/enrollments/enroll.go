// internal/app/features/enrollments/enroll.go
package enrollments

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	classstore "github.com/chapelware/chapelhub/internal/app/store/classes"
	enrollmentstore "github.com/chapelware/chapelhub/internal/app/store/enrollments"
	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeSelfEnroll handles POST /self/{classID} - a student enrolling
// themselves. The class must be published and open for self-enrollment.
func (h *Handler) ServeSelfEnroll(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionEnrollSelf); err != nil {
		httperr.Write(w, err)
		return
	}

	classID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "self enroll")
	defer cancel()

	class, err := classstore.New(h.DB).GetScoped(ctx, classID, t.ID)
	if err == classstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if !class.Published || !class.AllowSelfEnrollment {
		httperr.Write(w, httperr.ErrForbidden)
		return
	}

	_, _, studentID, _, _ := authz.UserCtx(r)
	h.enroll(ctx, w, r, t, classID, studentID, studentID)
}

// ServeAdminEnroll handles POST / with {"class_id": "...", "student_id": "..."}.
// Admin-driven enrollment ignores the self-enrollment gate but still honors
// the students quota.
func (h *Handler) ServeAdminEnroll(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionEnrollManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var body struct {
		ClassID   string `json:"class_id"`
		StudentID string `json:"student_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	classID, err := primitive.ObjectIDFromHex(body.ClassID)
	if err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	studentID, err := primitive.ObjectIDFromHex(body.StudentID)
	if err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin enroll")
	defer cancel()

	if _, err := classstore.New(h.DB).GetScoped(ctx, classID, t.ID); err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	student, err := userstore.New(h.DB).GetByID(ctx, studentID)
	if err != nil || !student.BelongsTo(t.ID) || student.Role != models.RoleStudent || student.Status != models.UserActive {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.enroll(ctx, w, r, t, classID, studentID, actorID)
}

// enroll runs the shared quota check and insert. The students quota counts
// distinct enrolled students, so a student who is already enrolled
// somewhere consumes no additional slot.
func (h *Handler) enroll(ctx context.Context, w http.ResponseWriter, r *http.Request, t *tenant.Info, classID, studentID, actorID primitive.ObjectID) {
	store := enrollmentstore.New(h.DB)

	alreadyCounted, err := store.Count(ctx, bson.M{
		"church_id":  t.ID,
		"student_id": studentID,
		"status":     models.EnrollmentEnrolled,
	})
	if err != nil {
		h.Log.Error("enrollment count failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	if alreadyCounted == 0 {
		res, err := h.Quota.CheckOne(ctx, models.Church{ID: t.ID, Plan: t.Plan}, plans.Students)
		if err != nil {
			h.Log.Error("student quota check failed", zap.Error(err))
			httperr.Write(w, err)
			return
		}
		if !res.Allowed {
			h.Audit.QuotaDenied(ctx, r, actorID, t.ID, string(plans.Students), res.Limit, res.Current)
			httperr.Write(w, httperr.ErrForbidden)
			return
		}
	}

	enr, err := store.Enroll(ctx, t.ID, classID, studentID)
	if err == enrollmentstore.ErrAlreadyEnrolled {
		httperr.Write(w, httperr.ErrConflict)
		return
	}
	if err != nil {
		h.Log.Error("enroll failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	h.Audit.AdminAction(ctx, r, audit.EventEnrollmentCreated, actorID, &t.ID,
		map[string]string{"class_id": classID.Hex(), "student_id": studentID.Hex()})

	httperr.WriteJSON(w, http.StatusCreated, enr)
}
