// Package authz is the access guard: it decides whether the current caller
// may perform an action against the resolved tenant.
//
// Authorization is a declarative table of (action → allowed roles) plus one
// rule applied atomically with the role check: the caller's stored church
// must equal the resolved tenant's church. A role check without the tenant
// match would allow cross-tenant privilege escalation, so the two are never
// separable here. Superadmins (church id empty) are authorized only for
// platform actions, never tenant actions.
package authz

import (
	"net/http"
	"strings"

	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/app/system/httperr"
	"github.com/chapelware/chapelhub/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's role (lowercased), name, user ObjectID,
// church ObjectID (NilObjectID for superadmins), and a found flag. If no
// user is present or the session ids are malformed, it returns
// ("visitor", "", Nil, Nil, false) so ok=true always means a valid,
// authenticated caller.
func UserCtx(r *http.Request) (role, name string, userID, churchID primitive.ObjectID, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, primitive.NilObjectID, false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		// Malformed user id in session - fail closed.
		return "visitor", "", primitive.NilObjectID, primitive.NilObjectID, false
	}
	cid := primitive.NilObjectID
	if u.ChurchID != "" {
		cid, err = primitive.ObjectIDFromHex(u.ChurchID)
		if err != nil {
			return "visitor", "", primitive.NilObjectID, primitive.NilObjectID, false
		}
	}
	return strings.ToLower(u.Role), u.Name, uid, cid, true
}

// IsSuperAdmin reports whether the current request's user is a platform
// superadmin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, churchID, ok := UserCtx(r)
	return ok && role == "super_admin" && churchID == primitive.NilObjectID
}

// Authorize checks the caller against the action table and the tenant.
//
// Returns nil when the caller holds a role allowed for the action AND the
// caller's stored church equals t.ID. Tenant actions with t == nil, or a
// church mismatch, are httperr.ErrForbidden. A missing caller is
// httperr.ErrUnauthenticated.
func Authorize(r *http.Request, t *tenant.Info, action Action) error {
	role, _, _, churchID, ok := UserCtx(r)
	if !ok {
		return httperr.ErrUnauthenticated
	}
	if !roleAllowed(role, action) {
		return httperr.ErrForbidden
	}
	if IsPlatformAction(action) {
		// Platform actions are superadmin-only and never run under a
		// tenant context.
		if role != "super_admin" || churchID != primitive.NilObjectID {
			return httperr.ErrForbidden
		}
		return nil
	}
	if t == nil {
		return httperr.ErrForbidden
	}
	if churchID == primitive.NilObjectID || churchID != t.ID {
		// Covers superadmins too: no role reaches across a tenant boundary.
		return httperr.ErrForbidden
	}
	return nil
}

// AuthorizeSelfOrAdmin is Authorize for actions a caller may always perform
// on their own record (e.g. dropping their own enrollment), falling back to
// the action table for everyone else.
func AuthorizeSelfOrAdmin(r *http.Request, t *tenant.Info, action Action, subject primitive.ObjectID) error {
	_, _, userID, churchID, ok := UserCtx(r)
	if !ok {
		return httperr.ErrUnauthenticated
	}
	if userID == subject && t != nil && churchID == t.ID {
		return nil
	}
	return Authorize(r, t, action)
}
