// internal/app/features/integrations/integrations.go
package integrations

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	integrationstore "github.com/chapelware/chapelhub/internal/app/store/integrations"
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

// ServeList handles GET / - the church's configured meeting integrations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionIntegrationManage); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "integration list")
	defer cancel()

	list, err := integrationstore.New(h.DB).Find(ctx, bson.M{"church_id": t.ID})
	if err != nil {
		h.Log.Error("integration list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"integrations": list})
}

type integrationForm struct {
	Provider  string `json:"provider"`
	Label     string `json:"label"`
	AccountID string `json:"account_id"`
}

// ServeCreate handles POST / - add a meeting integration. Counts against
// the plan's integration limit; the free tier has none.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionIntegrationManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var form integrationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	if form.Provider != models.MeetingZoom && form.Provider != models.MeetingMeet {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "integration create")
	defer cancel()

	_, _, actorID, _, _ := authz.UserCtx(r)

	res, err := h.Quota.CheckOne(ctx, models.Church{ID: t.ID, Plan: t.Plan}, plans.MeetingIntegrations)
	if err != nil {
		h.Log.Error("integration quota check failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if !res.Allowed {
		h.Audit.QuotaDenied(ctx, r, actorID, t.ID, string(plans.MeetingIntegrations), res.Limit, res.Current)
		httperr.Write(w, httperr.ErrForbidden)
		return
	}

	in, err := integrationstore.New(h.DB).Create(ctx, models.Integration{
		ChurchID:  t.ID,
		Provider:  form.Provider,
		Label:     strings.TrimSpace(form.Label),
		AccountID: strings.TrimSpace(form.AccountID),
	})
	if err == integrationstore.ErrDuplicateProvider {
		httperr.Write(w, httperr.ErrConflict)
		return
	}
	if err != nil {
		h.Log.Error("integration create failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	h.Audit.AdminAction(ctx, r, audit.EventIntegrationAdded, actorID, &t.ID,
		map[string]string{"integration_id": in.ID.Hex(), "provider": in.Provider})

	httperr.WriteJSON(w, http.StatusCreated, in)
}

// ServeDelete handles DELETE /{integrationID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionIntegrationManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "integrationID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "integration delete")
	defer cancel()

	deleted, err := integrationstore.New(h.DB).Delete(ctx, id, t.ID)
	if err != nil {
		h.Log.Error("integration delete failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if deleted == 0 {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventIntegrationRemoved, actorID, &t.ID,
		map[string]string{"integration_id": id.Hex()})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
