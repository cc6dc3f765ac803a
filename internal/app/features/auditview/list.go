// internal/app/features/auditview/list.go
package auditview

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chapelware/chapelhub/internal/app/store/audit"
	"github.com/chapelware/chapelhub/internal/app/system/authz"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// parseFilter builds a QueryFilter from query params shared by both list
// endpoints: category, event_type, user_id, start, end (RFC3339), limit,
// offset.
func parseFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  q.Get("category"),
		EventType: q.Get("event_type"),
		Limit:     defaultLimit,
	}

	if v := q.Get("user_id"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, httperr.ErrInvalidInput
		}
		f.UserID = &id
	}
	if v := q.Get("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, httperr.ErrInvalidInput
		}
		f.StartTime = &ts
	}
	if v := q.Get("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, httperr.ErrInvalidInput
		}
		f.EndTime = &ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return f, httperr.ErrInvalidInput
		}
		if n > maxLimit {
			n = maxLimit
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return f, httperr.ErrInvalidInput
		}
		f.Offset = n
	}
	return f, nil
}

// ServeChurchList handles GET / - audit events for the caller's own church.
func (h *Handler) ServeChurchList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionAuditView); err != nil {
		httperr.Write(w, err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	churchID := t.ID
	filter.ChurchID = &churchID

	h.serveQuery(w, r, filter)
}

// ServePlatformList handles GET /platform - the platform-wide trail, with an
// optional church_id narrowing filter.
func (h *Handler) ServePlatformList(w http.ResponseWriter, r *http.Request) {
	if err := authz.Authorize(r, nil, authz.ActionPlatformAudit); err != nil {
		httperr.Write(w, err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if v := r.URL.Query().Get("church_id"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			httperr.Write(w, httperr.ErrInvalidInput)
			return
		}
		filter.ChurchID = &id
	}

	h.serveQuery(w, r, filter)
}

func (h *Handler) serveQuery(w http.ResponseWriter, r *http.Request, filter audit.QueryFilter) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit query")
	defer cancel()

	store := audit.New(h.DB)
	events, err := store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit query failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	total, err := store.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("audit count failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}
