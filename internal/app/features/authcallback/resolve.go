// internal/app/features/authcallback/resolve.go
package authcallback

import (
	"context"
	"errors"
	"net/http"

	settingstore "github.com/chapelware/chapelhub/internal/app/store/settings"
	userstore "github.com/chapelware/chapelhub/internal/app/store/users"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.uber.org/zap"
)

// resolveUser maps a verified identity profile to a chapelhub user. The
// returned error doubles as a redirect error code, so its text stays
// URL-safe.
func (h *Handler) resolveUser(ctx context.Context, r *http.Request, t *tenant.Info, profile *identityProfile, inviteToken string) (models.User, error) {
	users := userstore.New(h.DB)

	user, err := users.GetBySubjectID(ctx, profile.Subject)
	switch {
	case err == nil:
		return h.checkKnownUser(ctx, r, t, user)
	case !errors.Is(err, userstore.ErrNotFound):
		h.Log.Error("subject lookup failed", zap.Error(err))
		return models.User{}, errors.New("internal")
	}

	// First sign-in with this provider subject. Outside a tenant the only
	// match is a pre-provisioned platform account; binding the subject on
	// first use lets the operator account created at startup sign in.
	if t == nil {
		user, err = users.GetPlatformByEmail(ctx, profile.Email)
		if err == nil && user.Status == models.UserActive {
			if bindErr := users.SetSubjectID(ctx, user.ID, profile.Subject); bindErr == nil {
				user.SubjectID = profile.Subject
				return user, nil
			}
		}
		h.Audit.LoginFailed(ctx, r, nil, "unknown user outside tenant")
		return models.User{}, errors.New("unknown_user")
	}

	user, err = users.GetByEmailInChurch(ctx, profile.Email, t.ID)
	switch {
	case err == nil:
		if user.Status == models.UserInvited {
			return h.claimInvite(ctx, r, t, user, profile, inviteToken)
		}
		// Active account with a different subject id: likely a provider
		// account change. Require an admin to resolve it.
		h.Audit.LoginFailed(ctx, r, &t.ID, "email bound to another identity")
		return models.User{}, errors.New("identity_mismatch")
	case !errors.Is(err, userstore.ErrNotFound):
		h.Log.Error("email lookup failed", zap.Error(err))
		return models.User{}, errors.New("internal")
	}

	return h.provisionStudent(ctx, r, t, profile)
}

// checkKnownUser gates a returning user: status and tenant membership.
func (h *Handler) checkKnownUser(ctx context.Context, r *http.Request, t *tenant.Info, user models.User) (models.User, error) {
	if user.Status == models.UserDisabled {
		h.Audit.LoginFailed(ctx, r, user.ChurchID, "account disabled")
		return models.User{}, errors.New("account_disabled")
	}
	if user.Role == models.RoleSuperAdmin {
		return user, nil
	}
	if t == nil || !user.BelongsTo(t.ID) {
		h.Audit.LoginFailed(ctx, r, user.ChurchID, "wrong tenant")
		return models.User{}, errors.New("wrong_church")
	}
	return user, nil
}

// claimInvite activates an invited account using the token carried through
// the sign-in state.
func (h *Handler) claimInvite(ctx context.Context, r *http.Request, t *tenant.Info, user models.User, profile *identityProfile, inviteToken string) (models.User, error) {
	if inviteToken == "" {
		h.Audit.InviteClaimFailed(ctx, r, &t.ID, "invite pending, no token presented")
		return models.User{}, errors.New("invite_pending")
	}

	users := userstore.New(h.DB)
	if err := users.ClaimInvite(ctx, user.ID, inviteToken, profile.Subject); err != nil {
		if errors.Is(err, userstore.ErrBadInviteToken) {
			h.Audit.InviteClaimFailed(ctx, r, &t.ID, "token mismatch")
			return models.User{}, errors.New("invalid_invite")
		}
		h.Log.Error("invite claim failed", zap.Error(err))
		return models.User{}, errors.New("internal")
	}

	user.Status = models.UserActive
	user.SubjectID = profile.Subject
	h.Audit.InviteClaimed(ctx, r, user.ID, t.ID)
	return user, nil
}

// provisionStudent creates a student account on first sign-in, when the
// platform allows self-registration.
func (h *Handler) provisionStudent(ctx context.Context, r *http.Request, t *tenant.Info, profile *identityProfile) (models.User, error) {
	settings := settingstore.New(h.DB)
	open, err := settings.GetOrDefault(ctx, models.SettingRegistrationOpen, "true")
	if err != nil {
		h.Log.Error("registration setting lookup failed", zap.Error(err))
		return models.User{}, errors.New("internal")
	}
	if open != "true" {
		h.Audit.LoginFailed(ctx, r, &t.ID, "registration closed")
		return models.User{}, errors.New("registration_closed")
	}

	users := userstore.New(h.DB)
	churchID := t.ID
	user, err := users.Create(ctx, models.User{
		SubjectID: profile.Subject,
		FullName:  profile.Name,
		Email:     profile.Email,
		Role:      models.RoleStudent,
		Status:    models.UserActive,
		ChurchID:  &churchID,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			// Lost a race with a concurrent first sign-in.
			if existing, lookupErr := users.GetByEmailInChurch(ctx, profile.Email, t.ID); lookupErr == nil {
				return h.checkKnownUser(ctx, r, t, existing)
			}
		}
		h.Log.Error("student provisioning failed", zap.Error(err))
		return models.User{}, errors.New("internal")
	}

	h.Audit.StudentProvisioned(ctx, r, user.ID, t.ID, user.Email)
	return user, nil
}
