package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment statuses.
const (
	EnrollmentEnrolled  = "enrolled"
	EnrollmentDropped   = "dropped"
	EnrollmentCompleted = "completed"
)

// Enrollment links a student to a class within one church. A partial unique
// index on (church_id, class_id, student_id) where status == "enrolled"
// guarantees at most one active record per pair.
type Enrollment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID  primitive.ObjectID `bson:"church_id" json:"church_id"`
	ClassID   primitive.ObjectID `bson:"class_id" json:"class_id"`
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	Status    string             `bson:"status" json:"status"`

	EnrolledAt time.Time  `bson:"enrolled_at" json:"enrolled_at"`
	DroppedAt  *time.Time `bson:"dropped_at,omitempty" json:"dropped_at,omitempty"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}
