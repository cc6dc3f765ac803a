// internal/app/features/enrollments/manage.go
package enrollments

import (
	"encoding/json"
	"net/http"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	enrollmentstore "github.com/chapelware/chapelhub/internal/app/store/enrollments"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeDrop handles POST /self/{classID}/drop for students dropping their
// own enrollment, and admin drops via {"student_id": "..."} in the body.
func (h *Handler) ServeDrop(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)

	classID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	// Default subject is the caller; admins and facilitators may name
	// another student.
	_, _, callerID, _, ok := authz.UserCtx(r)
	if !ok {
		httperr.Write(w, httperr.ErrUnauthenticated)
		return
	}
	studentID := callerID
	var body struct {
		StudentID string `json:"student_id"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.StudentID != "" {
			sid, serr := primitive.ObjectIDFromHex(body.StudentID)
			if serr != nil {
				httperr.Write(w, httperr.ErrInvalidInput)
				return
			}
			studentID = sid
		}
	}

	if err := authz.AuthorizeSelfOrAdmin(r, t, authz.ActionEnrollManage, studentID); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "enrollment drop")
	defer cancel()

	err = enrollmentstore.New(h.DB).Drop(ctx, t.ID, classID, studentID)
	if err == enrollmentstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("enrollment drop failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	h.Audit.AdminAction(ctx, r, audit.EventEnrollmentDropped, callerID, &t.ID,
		map[string]string{"class_id": classID.Hex(), "student_id": studentID.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "dropped"})
}

// ServeComplete handles POST /{classID}/complete with {"student_id": "..."}.
func (h *Handler) ServeComplete(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionEnrollManage); err != nil {
		httperr.Write(w, err)
		return
	}

	classID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var body struct {
		StudentID string `json:"student_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	studentID, err := primitive.ObjectIDFromHex(body.StudentID)
	if err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "enrollment complete")
	defer cancel()

	err = enrollmentstore.New(h.DB).Complete(ctx, t.ID, classID, studentID)
	if err == enrollmentstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("enrollment complete failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// ServeMine handles GET /mine - the caller's own enrollments.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionContentView); err != nil {
		httperr.Write(w, err)
		return
	}

	_, _, userID, _, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "own enrollments")
	defer cancel()

	list, err := enrollmentstore.New(h.DB).Find(ctx, bson.M{
		"church_id":  t.ID,
		"student_id": userID,
	})
	if err != nil {
		h.Log.Error("own enrollments failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"enrollments": list})
}

// ServeRoster handles GET /{classID}/roster - active enrollments in a class.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionEnrollManage); err != nil {
		httperr.Write(w, err)
		return
	}

	classID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class roster")
	defer cancel()

	list, err := enrollmentstore.New(h.DB).Find(ctx, bson.M{
		"church_id": t.ID,
		"class_id":  classID,
		"status":    models.EnrollmentEnrolled,
	})
	if err != nil {
		h.Log.Error("class roster failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"enrollments": list})
}
