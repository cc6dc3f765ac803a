package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles, lowest privilege first.
const (
	RoleStudent     = "student"
	RoleFacilitator = "facilitator"
	RoleChurchAdmin = "church_admin"
	RoleSuperAdmin  = "super_admin"
)

// User statuses.
const (
	UserActive   = "active"
	UserInvited  = "invited"
	UserDisabled = "disabled"
)

// User represents students, facilitators, church admins, and platform
// superadmins. Identity issuance is delegated to the external identity
// provider; SubjectID is the provider's stable subject identifier.
//
// Invariants:
//   - a non-nil ChurchID must reference an active church
//   - RoleSuperAdmin requires ChurchID == nil (platform scope only)
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SubjectID  string              `bson:"subject_id,omitempty" json:"-"`
	FullName   string              `bson:"full_name" json:"full_name"`
	FullNameCI string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string              `bson:"email" json:"email"`
	EmailCI    string              `bson:"email_ci" json:"-"`
	Role       string              `bson:"role" json:"role"`
	Status     string              `bson:"status,omitempty" json:"status"`
	ChurchID   *primitive.ObjectID `bson:"church_id,omitempty" json:"church_id,omitempty"`

	// InviteTokenHash holds the bcrypt hash of an outstanding invite token
	// for users in the "invited" status. Cleared on first sign-in.
	InviteTokenHash string `bson:"invite_token_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsSuperAdmin reports whether the user operates at platform scope.
func (u User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// BelongsTo reports whether the user's stored church matches the given one.
func (u User) BelongsTo(churchID primitive.ObjectID) bool {
	return u.ChurchID != nil && *u.ChurchID == churchID
}
