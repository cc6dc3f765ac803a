package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is the top level of a church's content tree.
// Only published programs count against the programs quota.
type Program struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID    primitive.ObjectID `bson:"church_id" json:"church_id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Published   bool               `bson:"published" json:"published"`
	SortOrder   int                `bson:"sort_order" json:"sort_order"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Course belongs to a Program. Its church_id always equals the parent
// program's church_id; there is no cross-tenant linkage.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID    primitive.ObjectID `bson:"church_id" json:"church_id"`
	ProgramID   primitive.ObjectID `bson:"program_id" json:"program_id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Published   bool               `bson:"published" json:"published"`
	SortOrder   int                `bson:"sort_order" json:"sort_order"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Meeting providers for class meeting links.
const (
	MeetingZoom = "zoom"
	MeetingMeet = "meet"
)

// Class belongs to a Course and is the unit students enroll in.
type Class struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID  primitive.ObjectID `bson:"church_id" json:"church_id"`
	CourseID  primitive.ObjectID `bson:"course_id" json:"course_id"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"-"`
	Published bool               `bson:"published" json:"published"`
	SortOrder int                `bson:"sort_order" json:"sort_order"`

	// Self-enrollment gate for students. Admin-driven enrollment ignores it.
	AllowSelfEnrollment bool `bson:"allow_self_enrollment" json:"allow_self_enrollment"`

	// Optional meeting-link metadata (provider + join URL).
	MeetingProvider string `bson:"meeting_provider,omitempty" json:"meeting_provider,omitempty"`
	MeetingURL      string `bson:"meeting_url,omitempty" json:"meeting_url,omitempty"`

	FacilitatorID *primitive.ObjectID `bson:"facilitator_id,omitempty" json:"facilitator_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
