// internal/app/features/churches/churches.go
package churches

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	churchstore "github.com/chapelware/chapelhub/internal/app/store/churches"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Subdomains become DNS labels, so they follow DNS label rules.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])?$`)

// ServeList handles GET / - all churches, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if err := authz.Authorize(r, nil, authz.ActionChurchProvision); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "church list")
	defer cancel()

	list, err := churchstore.New(h.DB).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		h.Log.Error("church list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"churches": list})
}

type provisionForm struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// ServeProvision handles POST / - create a new tenant on the free plan.
func (h *Handler) ServeProvision(w http.ResponseWriter, r *http.Request) {
	if err := authz.Authorize(r, nil, authz.ActionChurchProvision); err != nil {
		httperr.Write(w, err)
		return
	}

	var form provisionForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Subdomain = strings.ToLower(strings.TrimSpace(form.Subdomain))
	if form.Name == "" || len(form.Name) > 200 || !subdomainPattern.MatchString(form.Subdomain) {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "church provision")
	defer cancel()

	church, err := churchstore.New(h.DB).Create(ctx, models.Church{
		Name:      form.Name,
		Subdomain: form.Subdomain,
	})
	if err == churchstore.ErrDuplicateSubdomain {
		httperr.Write(w, httperr.ErrConflict)
		return
	}
	if err != nil {
		h.Log.Error("church provision failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	churchID := church.ID
	h.Audit.AdminAction(ctx, r, audit.EventChurchProvisioned, actorID, &churchID,
		map[string]string{"subdomain": church.Subdomain})

	httperr.WriteJSON(w, http.StatusCreated, church)
}

// ServeSetStatus returns a handler that flips the church to the given
// status. Suspension takes effect on the next request through the tenant
// middleware.
func (h *Handler) ServeSetStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := authz.Authorize(r, nil, authz.ActionChurchProvision); err != nil {
			httperr.Write(w, err)
			return
		}

		id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "churchID"))
		if err != nil {
			httperr.Write(w, httperr.ErrNotFound)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "church status change")
		defer cancel()

		if err := churchstore.New(h.DB).SetStatus(ctx, id, status); err != nil {
			if err == churchstore.ErrNotFound {
				httperr.Write(w, httperr.ErrNotFound)
				return
			}
			h.Log.Error("church status change failed", zap.Error(err))
			httperr.Write(w, err)
			return
		}

		_, _, actorID, _, _ := authz.UserCtx(r)
		h.Audit.AdminAction(ctx, r, audit.EventChurchUpdated, actorID, &id,
			map[string]string{"status": status})

		httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}
