// internal/app/features/assets/assets.go
package assets

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	assetstore "github.com/chapelware/chapelhub/internal/app/store/assets"
	"github.com/chapelware/chapelhub/internal/app/store/audit"
	classstore "github.com/chapelware/chapelhub/internal/app/store/classes"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type assetForm struct {
	ClassID     string `json:"class_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	ByteSize    int64  `json:"byte_size"`
}

// ServeRegister handles POST / - register an uploaded class material. The
// bytes themselves live in external object storage; this records metadata
// and charges the declared size against the storage quota.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionAssetManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var form assetForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	classID, err := primitive.ObjectIDFromHex(form.ClassID)
	if form.Name == "" || form.ByteSize <= 0 || err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "asset register")
	defer cancel()

	if _, err := classstore.New(h.DB).GetScoped(ctx, classID, t.ID); err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)

	res, err := h.Quota.Check(ctx, models.Church{ID: t.ID, Plan: t.Plan}, plans.StorageBytes, form.ByteSize)
	if err != nil {
		h.Log.Error("storage quota check failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if !res.Allowed {
		h.Audit.QuotaDenied(ctx, r, actorID, t.ID, string(plans.StorageBytes), res.Limit, res.Current)
		httperr.Write(w, httperr.ErrForbidden)
		return
	}

	asset, err := assetstore.New(h.DB).Create(ctx, models.Asset{
		ChurchID:    t.ID,
		ClassID:     classID,
		Name:        form.Name,
		ContentType: form.ContentType,
		ByteSize:    form.ByteSize,
		StoragePath: path.Join(t.ID.Hex(), classID.Hex(), uuid.NewString()),
		UploadedBy:  actorID,
	})
	if err != nil {
		h.Log.Error("asset register failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	h.Audit.AdminAction(ctx, r, audit.EventAssetUploaded, actorID, &t.ID,
		map[string]string{"asset_id": asset.ID.Hex(), "name": asset.Name})

	httperr.WriteJSON(w, http.StatusCreated, asset)
}

// ServeList handles GET /?class_id=... - assets for one class.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionContentView); err != nil {
		httperr.Write(w, err)
		return
	}

	classID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("class_id"))
	if err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "asset list")
	defer cancel()

	list, err := assetstore.New(h.DB).Find(ctx, bson.M{"church_id": t.ID, "class_id": classID})
	if err != nil {
		h.Log.Error("asset list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"assets": list})
}

// ServeUsage handles GET /usage - the church's storage consumption against
// its plan limit.
func (h *Handler) ServeUsage(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionAssetManage); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "storage usage")
	defer cancel()

	used, err := assetstore.New(h.DB).TotalBytes(ctx, t.ID)
	if err != nil {
		h.Log.Error("storage usage failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{
		"used_bytes":  used,
		"limit_bytes": plans.Limit(t.Plan, plans.StorageBytes),
	})
}

// ServeDelete handles DELETE /{assetID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionAssetManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "assetID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "asset delete")
	defer cancel()

	deleted, err := assetstore.New(h.DB).Delete(ctx, id, t.ID)
	if err != nil {
		h.Log.Error("asset delete failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if deleted == 0 {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventAssetDeleted, actorID, &t.ID,
		map[string]string{"asset_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
