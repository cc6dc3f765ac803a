// internal/app/features/members/members.go
package members

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ServeList handles GET /?role=... - members of the current church.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionMemberManage); err != nil {
		httperr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "member list")
	defer cancel()

	filter := bson.M{"church_id": t.ID}
	if role := strings.TrimSpace(r.URL.Query().Get("role")); role != "" {
		filter["role"] = role
	}

	list, err := userstore.New(h.DB).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		h.Log.Error("member list failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{"members": list})
}

type inviteForm struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// inviteResponse carries the one-time invite token back to the admin. The
// token is never stored in clear; only its bcrypt hash lands in the user
// record.
type inviteResponse struct {
	Member      models.User `json:"member"`
	InviteToken string      `json:"invite_token"`
}

// ServeInviteFacilitator handles POST /invitations - invite a facilitator.
// Consumes a facilitator slot under the plan limit.
func (h *Handler) ServeInviteFacilitator(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionMemberManage); err != nil {
		httperr.Write(w, err)
		return
	}

	var form inviteForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	if form.FullName == "" {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "facilitator invite")
	defer cancel()

	_, _, actorID, _, _ := authz.UserCtx(r)

	res, err := h.Quota.CheckOne(ctx, models.Church{ID: t.ID, Plan: t.Plan}, plans.Facilitators)
	if err != nil {
		h.Log.Error("facilitator quota check failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if !res.Allowed {
		h.Audit.QuotaDenied(ctx, r, actorID, t.ID, string(plans.Facilitators), res.Limit, res.Current)
		httperr.Write(w, httperr.ErrForbidden)
		return
	}

	token := uuid.NewString()
	churchID := t.ID
	member, err := userstore.New(h.DB).CreateInvited(ctx, models.User{
		FullName: form.FullName,
		Email:    form.Email,
		Role:     models.RoleFacilitator,
		ChurchID: &churchID,
	}, token)
	if err == userstore.ErrDuplicateEmail {
		httperr.Write(w, httperr.ErrConflict)
		return
	}
	if err != nil {
		h.Log.Error("facilitator invite failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	h.Audit.MemberInvited(ctx, r, actorID, member.ID, t.ID, models.RoleFacilitator)

	httperr.WriteJSON(w, http.StatusCreated, inviteResponse{Member: member, InviteToken: token})
}

// ServeChangeRole handles POST /{memberID}/role with {"role": "..."}.
// Members can move between student and facilitator; promotion to
// facilitator consumes a plan slot.
func (h *Handler) ServeChangeRole(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionMemberManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}
	if body.Role != models.RoleStudent && body.Role != models.RoleFacilitator && body.Role != models.RoleChurchAdmin {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "member role change")
	defer cancel()

	store := userstore.New(h.DB)
	member, err := store.GetByID(ctx, id)
	if err != nil || !member.BelongsTo(t.ID) {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}
	if member.Role == body.Role {
		httperr.Write(w, httperr.ErrConflict)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)

	if body.Role == models.RoleFacilitator {
		res, err := h.Quota.CheckOne(ctx, models.Church{ID: t.ID, Plan: t.Plan}, plans.Facilitators)
		if err != nil {
			httperr.Write(w, err)
			return
		}
		if !res.Allowed {
			h.Audit.QuotaDenied(ctx, r, actorID, t.ID, string(plans.Facilitators), res.Limit, res.Current)
			httperr.Write(w, httperr.ErrForbidden)
			return
		}
	}

	if err := store.UpdateRole(ctx, id, t.ID, body.Role); err != nil {
		if err == userstore.ErrNotFound {
			httperr.Write(w, httperr.ErrNotFound)
			return
		}
		h.Log.Error("member role change failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}

	h.Audit.MemberRoleChanged(ctx, r, actorID, id, t.ID, member.Role, body.Role)

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeRemove handles DELETE /{memberID}. Admins cannot remove themselves.
func (h *Handler) ServeRemove(w http.ResponseWriter, r *http.Request) {
	t := tenant.FromRequest(r)
	if err := authz.Authorize(r, t, authz.ActionMemberManage); err != nil {
		httperr.Write(w, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	_, _, actorID, _, _ := authz.UserCtx(r)
	if id == actorID {
		httperr.Write(w, httperr.ErrInvalidInput)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "member remove")
	defer cancel()

	deleted, err := userstore.New(h.DB).Delete(ctx, id, t.ID)
	if err != nil {
		h.Log.Error("member remove failed", zap.Error(err))
		httperr.Write(w, err)
		return
	}
	if deleted == 0 {
		httperr.Write(w, httperr.ErrNotFound)
		return
	}

	h.Audit.MemberRemoved(ctx, r, actorID, id, t.ID)

	httperr.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
