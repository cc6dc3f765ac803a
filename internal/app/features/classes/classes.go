// internal/app/features/classes/classes.go
package classes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	classstore "github.com/chapelware/chapelhub/internal/app/store/classes"
	coursestore "github.com/chapelware/chapelhub/internal/app/store/courses"
	integrationstore "github.com/chapelware/chapelhub/internal/app/store/integrations"
	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type classForm struct {
	CourseID            string `json:"course_id"`
	Title               string `json:"title"`
	Published           *bool  `json:"published"`
	AllowSelfEnrollment *bool  `json:"allow_self_enrollment"`
}

// ServeList handles GET /?course_id=... - classes under a course.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionContentView); err != nil {
		httperr.Write(w, err)
		return
	}

	courseID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("course_id"))
	if err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class list")
	defer cancel()

	filter := bson.M{"church_id": t.ID, "course_id": courseID}
	role, _, _, _, _ := authz.UserCtx(r)
	if role == models.RoleStudent {
		filter["published"] = true
	}

	list, err := classstore.New(h.DB).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		h.Log.Error("class list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"classes": list})
}

// ServeCreate handles POST / - create a class under an existing course.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionClassManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var form classForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	form.Title = strings.TrimSpace(form.Title)
	courseID, err := primitive.ObjectIDFromHex(form.CourseID)
	if form.Title == "" || err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class create")
	defer cancel()

	if _, err := coursestore.New(h.DB).GetScoped(ctx, courseID, t.ID); err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	class := models.Class{
		ChurchID: t.ID,
		CourseID: courseID,
		Title:    form.Title,
	}
	if form.AllowSelfEnrollment != nil {
		class.AllowSelfEnrollment = *form.AllowSelfEnrollment
	}

	created, err := classstore.New(h.DB).Create(ctx, class)
	if err != nil {
		h.Log.Error("class create failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventClassCreated, actorID, &t.ID,
		map[string]string{"class_id": created.ID.Hex(), "title": created.Title})

	httperr.WriteJSON(w, http.StatusCreated, created)
}

// ServeUpdate handles PATCH /{classID} with any of title, published,
// allow_self_enrollment.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionClassManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var form classForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	set := bson.M{}
	if title := strings.TrimSpace(form.Title); title != "" {
		set["title"] = title
	}
	if form.Published != nil {
		set["published"] = *form.Published
	}
	if form.AllowSelfEnrollment != nil {
		set["allow_self_enrollment"] = *form.AllowSelfEnrollment
	}
	if len(set) == 0 {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class update")
	defer cancel()

	err = classstore.New(h.DB).Update(ctx, id, t.ID, set)
	if err == classstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("class update failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventClassUpdated, actorID, &t.ID,
		map[string]string{"class_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeAssignFacilitator handles POST /{classID}/facilitator with
// {"facilitator_id": "..."} or null to clear. The target must be an active
// facilitator in this church.
func (h *Handler) ServeAssignFacilitator(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionClassManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var body struct {
		FacilitatorID *string `json:"facilitator_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class assign facilitator")
	defer cancel()

	store := classstore.New(h.DB)

	if body.FacilitatorID == nil {
		err = store.AssignFacilitator(ctx, id, t.ID, nil)
	} else {
		fid, ferr := primitive.ObjectIDFromHex(*body.FacilitatorID)
		if ferr != nil {
			httperr.Write(w, httperr.ErrInvalidInput)
			return
		}
		u, uerr := userstore.New(h.DB).GetByID(ctx, fid)
		if uerr != nil || !u.BelongsTo(t.ID) || u.Role != models.RoleFacilitator || u.Status != models.UserActive {
			httperr.Write(w, httperr.ErrInvalidInput)
			return
		}
		err = store.AssignFacilitator(ctx, id, t.ID, &fid)
	}
	if err == classstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("class facilitator assign failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventClassUpdated, actorID, &t.ID,
		map[string]string{"class_id": id.Hex(), "field": "facilitator"})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeSetMeeting handles POST /{classID}/meeting with
// {"provider": "zoom"|"meet", "url": "https://..."}. The church must have a
// configured integration for the provider.
func (h *Handler) ServeSetMeeting(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionClassManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var body struct {
		Provider string `json:"provider"`
		URL      string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	if body.Provider != models.MeetingZoom && body.Provider != models.MeetingMeet {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	if !strings.HasPrefix(body.URL, "https://") {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class set meeting")
	defer cancel()

	if _, err := integrationstore.New(h.DB).GetByProvider(ctx, t.ID, body.Provider); err != nil {
		// No integration configured for this provider.
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	err = classstore.New(h.DB).SetMeeting(ctx, id, t.ID, body.Provider, body.URL)
	if err == classstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("class set meeting failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventClassUpdated, actorID, &t.ID,
		map[string]string{"class_id": id.Hex(), "field": "meeting", "provider": body.Provider})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeDelete handles DELETE /{classID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionClassManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "classID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "class delete")
	defer cancel()

	deleted, err := classstore.New(h.DB).Delete(ctx, id, t.ID)
	if err != nil {
		h.Log.Error("class delete failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if deleted == 0 {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventClassDeleted, actorID, &t.ID,
		map[string]string{"class_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
