// internal/app/features/courses/courses.go
package courses

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	classstore "github.com/chapelware/chapelhub/internal/app/store/classes"
	coursestore "github.com/chapelware/chapelhub/internal/app/store/courses"
	programstore "github.com/chapelware/chapelhub/internal/app/store/programs"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var richText = bluemonday.UGCPolicy()

type courseForm struct {
	ProgramID   string `json:"program_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ServeList handles GET /?program_id=... - courses under a program.
// Students and facilitators see published courses; church admins see all.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionContentView); err != nil {
		httperr.Write(w, err)
		return
	}

	programID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("program_id"))
	if err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course list")
	defer cancel()

	filter := bson.M{"church_id": t.ID, "program_id": programID}
	role, _, _, _, _ := authz.UserCtx(r)
	if role != models.RoleChurchAdmin {
		filter["published"] = true
	}

	list, err := coursestore.New(h.DB).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		h.Log.Error("course list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"courses": list})
}

// ServeCreate handles POST / - create a course under an existing program.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionCourseManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var form courseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	form.Title = strings.TrimSpace(form.Title)
	programID, err := primitive.ObjectIDFromHex(form.ProgramID)
	if form.Title == "" || err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course create")
	defer cancel()

	// The parent program must exist in this church.
	if _, err := programstore.New(h.DB).GetScoped(ctx, programID, t.ID); err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	course, err := coursestore.New(h.DB).Create(ctx, models.Course{
		ChurchID:    t.ID,
		ProgramID:   programID,
		Title:       form.Title,
		Description: richText.Sanitize(form.Description),
	})
	if err != nil {
		h.Log.Error("course create failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventCourseCreated, actorID, &t.ID,
		map[string]string{"course_id": course.ID.Hex(), "title": course.Title})

	httperr.WriteJSON(w, http.StatusCreated, course)
}

// ServeUpdate handles PATCH /{courseID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionCourseManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "courseID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var form courseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course update")
	defer cancel()

	store := coursestore.New(h.DB)
	err = store.Update(ctx, id, t.ID, strings.TrimSpace(form.Title), richText.Sanitize(form.Description))
	if err == coursestore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("course update failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventCourseUpdated, actorID, &t.ID,
		map[string]string{"course_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeSetPublished returns the handler for POST /{courseID}/publish or
// /{courseID}/unpublish depending on the flag.
func (h *Handler) ServeSetPublished(published bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := tenant.FromRequest(r)
		if err := authz.Authorize(r, t, authz.ActionCourseManage); err != nil {
			httperr.Write(w, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "courseID"))
		if err != nil {
			httperr.Write(w, httperr.ErrNotFound)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course publish")
		defer cancel()

		err = coursestore.New(h.DB).SetPublished(ctx, id, t.ID, published)
		if err == coursestore.ErrNotFound {
			httperr.Write(w, httperr.ErrNotFound)
			return
		}
		if err != nil {
			httperr.Write(w, err)
			return
		}

		_, _, actorID, _, _ := authz.UserCtx(r)
		h.Audit.AdminAction(ctx, r, audit.EventCourseUpdated, actorID, &t.ID,
			map[string]string{"course_id": id.Hex()})

		httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

// ServeDelete handles DELETE /{courseID}. Classes under the course go too.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionCourseManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "courseID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "course delete")
	defer cancel()

	deleted, err := coursestore.New(h.DB).Delete(ctx, id, t.ID)
	if err != nil {
		h.Log.Error("course delete failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if deleted == 0 {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	if _, err := classstore.New(h.DB).DeleteByCourse(ctx, id, t.ID); err != nil {
		h.Log.Error("course cascade class delete failed", zap.Error(err))
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventCourseDeleted, actorID, &t.ID,
		map[string]string{"course_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeReorder handles POST /reorder with {"ids": [...]}.
func (h *Handler) ServeReorder(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionCourseManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(body.IDs))
	for _, raw := range body.IDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httperr.Write(w, httperr.ErrInvalidInput)
			return
		}
		ids = append(ids, id)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course reorder")
	defer cancel()

	if err := coursestore.New(h.DB).Reorder(ctx, t.ID, ids); err != nil {
		h.Log.Error("course reorder failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}
