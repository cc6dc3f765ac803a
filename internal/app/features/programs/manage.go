// internal/app/features/programs/manage.go
package programs

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
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// richText strips unsafe markup from admin-entered descriptions.
var richText = bluemonday.UGCPolicy()

type programForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ServeCreate handles POST / - create a program (unpublished).
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionProgramManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var form programForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	form.Title = strings.TrimSpace(form.Title)
	if form.Title == "" {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "program create")
	defer cancel()

	store := programstore.New(h.DB)
	program, err := store.Create(ctx, models.Program{
		ChurchID:    t.ID,
		Title:       form.Title,
		Description: richText.Sanitize(form.Description),
	})
	if err != nil {
		h.Log.Error("program create failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventProgramCreated, actorID, &t.ID,
		map[string]string{"program_id": program.ID.Hex(), "title": program.Title})

	httperr.WriteJSON(w, http.StatusCreated, program)
}

// ServeUpdate handles PATCH /{programID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionProgramManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "programID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var form programForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "program update")
	defer cancel()

	store := programstore.New(h.DB)
	err = store.Update(ctx, id, t.ID, strings.TrimSpace(form.Title), richText.Sanitize(form.Description))
	if err == programstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("program update failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventProgramUpdated, actorID, &t.ID,
		map[string]string{"program_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServePublish handles POST /{programID}/publish. Publishing consumes a
// slot against the plan's program limit; unpublishing frees one.
func (h *Handler) ServePublish(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionProgramManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "programID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "program publish")
	defer cancel()

	store := programstore.New(h.DB)
	program, err := store.GetScoped(ctx, id, t.ID)
	if err == programstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)

	if !program.Published {
		res, err := h.Quota.CheckOne(ctx, models.Church{ID: t.ID, Plan: t.Plan}, plans.Programs)
		if err != nil {
			h.Log.Error("program quota check failed", zap.Error(err))
			httperr.Write(w, err)
			return
		}
		if !res.Allowed {
			h.Audit.QuotaDenied(ctx, r, actorID, t.ID, string(plans.Programs), res.Limit, res.Current)
			httperr.Write(w, httperr.ErrForbidden)
			return
		}
	}

	if err := store.SetPublished(ctx, id, t.ID, true); err != nil {
		httperr.Write(w, err)
		return
	}

	h.Audit.AdminAction(ctx, r, audit.EventProgramUpdated, actorID, &t.ID,
		map[string]string{"program_id": id.Hex(), "published": "true"})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

// ServeUnpublish handles POST /{programID}/unpublish.
func (h *Handler) ServeUnpublish(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionProgramManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "programID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "program unpublish")
	defer cancel()

	store := programstore.New(h.DB)
	err = store.SetPublished(ctx, id, t.ID, false)
	if err == programstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventProgramUpdated, actorID, &t.ID,
		map[string]string{"program_id": id.Hex(), "published": "false"})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "unpublished"})
}

// ServeDelete handles DELETE /{programID}. Courses and classes under the
// program are removed with it.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionProgramManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "programID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "program delete")
	defer cancel()

	store := programstore.New(h.DB)
	deleted, err := store.Delete(ctx, id, t.ID)
	if err != nil {
		h.Log.Error("program delete failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if deleted == 0 {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	// Cascade: courses under the program, then their classes.
	courses := coursestore.New(h.DB)
	children, err := courses.Find(ctx, bson.M{"church_id": t.ID, "program_id": id})
	if err != nil {
		h.Log.Error("program cascade lookup failed", zap.Error(err))
	} else if len(children) > 0 {
		courseIDs := make([]primitive.ObjectID, 0, len(children))
		for _, c := range children {
			courseIDs = append(courseIDs, c.ID)
		}
		if _, err := classstore.New(h.DB).DeleteByCourses(ctx, t.ID, courseIDs); err != nil {
			h.Log.Error("program cascade class delete failed", zap.Error(err))
		}
		if _, err := courses.DeleteByProgram(ctx, id, t.ID); err != nil {
			h.Log.Error("program cascade course delete failed", zap.Error(err))
		}
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventProgramDeleted, actorID, &t.ID,
		map[string]string{"program_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeReorder handles POST /reorder with {"ids": ["...", ...]}.
func (h *Handler) ServeReorder(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionProgramManage); err != nil {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "program reorder")
	defer cancel()

	if err := programstore.New(h.DB).Reorder(ctx, t.ID, ids); err != nil {
		h.Log.Error("program reorder failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}
