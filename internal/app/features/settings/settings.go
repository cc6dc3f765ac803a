// internal/app/features/settings/settings.go
package settings

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	settingstore "github.com/chapelware/chapelhub/internal/app/store/settings"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/plans"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// churchSettings is the church-facing settings view: profile plus the plan
// capabilities the frontend needs to know about.
type churchSettings struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	Plan           string `json:"plan"`
	CustomBranding bool   `json:"custom_branding"`
	Certificates   bool   `json:"certificates"`
}

// ServeChurchGet handles GET /church.
func (h *Handler) ServeChurchGet(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionSettingsManage); err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, churchSettings{
		Name:           t.Name,
		Subdomain:      t.Subdomain,
		Plan:           t.Plan,
		CustomBranding: plans.HasFeature(t.Plan, plans.CustomBranding),
		Certificates:   plans.HasFeature(t.Plan, plans.Certificates),
	})
}

// ServeChurchUpdate handles PATCH /church with {"name": "..."}. The
// subdomain is fixed at provisioning time and cannot change here.
func (h *Handler) ServeChurchUpdate(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionSettingsManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || len(body.Name) > 200 {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "church settings update")
	defer cancel()

	if err := churchstore.New(h.DB).UpdateName(ctx, t.ID, body.Name); err != nil {
		h.Log.Error("church name update failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	churchID := t.ID
	h.Audit.AdminAction(ctx, r, audit.EventChurchUpdated, actorID, &churchID,
		map[string]string{"name": body.Name})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// platformKeys are the settings a superadmin may write, with their legal
// values.
var platformKeys = map[string]func(string) bool{
	models.SettingRegistrationOpen: func(v string) bool { return v == "true" || v == "false" },
}

// ServePlatformList handles GET /platform (super_admin only).
func (h *Handler) ServePlatformList(w http.ResponseWriter, r *http.Request) {
	if err := authz.Authorize(r, nil, authz.ActionPlatformSettings); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "platform settings list")
	defer cancel()

	list, err := settingstore.New(h.DB).All(ctx)
	if err != nil {
		h.Log.Error("platform settings list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"settings": list})
}

// ServePlatformSet handles PUT /platform/{key} with {"value": "..."}.
func (h *Handler) ServePlatformSet(w http.ResponseWriter, r *http.Request) {
	if err := authz.Authorize(r, nil, authz.ActionPlatformSettings); err != nil {
		httperr.Write(w, err)
		return
	}

	key := chi.URLParam(r, "key")
	validate, known := platformKeys[key]
	if !known {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	if !validate(body.Value) {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "platform setting save")
	defer cancel()

	if err := settingstore.New(h.DB).Set(ctx, key, body.Value); err != nil {
		h.Log.Error("platform setting save failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	h.Audit.AdminAction(ctx, r, audit.EventPlatformSettingSaved, actorID, nil,
		map[string]string{"key": key, "value": body.Value})

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
