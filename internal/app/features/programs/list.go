// internal/app/features/programs/list.go
package programs

import (
	"net/http"

	programstore "github.com/chapelware/chapelhub/internal/app/store/programs"
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

// ServeList handles GET / - the program catalog for the current church.
// Students and facilitators see published programs; church admins see all.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionContentView); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "program list")
	defer cancel()

	filter := bson.M{"church_id": t.ID}
	role, _, _, _, _ := authz.UserCtx(r)
	if role != models.RoleChurchAdmin {
		filter["published"] = true
	}

	store := programstore.New(h.DB)
	list, err := store.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		h.Log.Error("program list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"programs": list})
}

// ServeGet handles GET /{programID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionContentView); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "programID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "program get")
	defer cancel()

	store := programstore.New(h.DB)
	program, err := store.GetScoped(ctx, id, t.ID)
	if err == programstore.ErrNotFound {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if err != nil {
		h.Log.Error("program get failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	role, _, _, _, _ := authz.UserCtx(r)
	if !program.Published && role != models.RoleChurchAdmin {
		// Unpublished content looks absent to non-admins.
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, program)
}
