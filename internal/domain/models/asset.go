package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Asset records the metadata of an uploaded class material. The bytes
// themselves live in external object storage; ByteSize is what the storage
// quota sums per church.
type Asset struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID    primitive.ObjectID `bson:"church_id" json:"church_id"`
	ClassID     primitive.ObjectID `bson:"class_id" json:"class_id"`
	Name        string             `bson:"name" json:"name"`
	ContentType string             `bson:"content_type,omitempty" json:"content_type,omitempty"`
	ByteSize    int64              `bson:"byte_size" json:"byte_size"`
	StoragePath string             `bson:"storage_path" json:"-"`
	UploadedBy  primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Integration is a configured meeting integration for a church (e.g. a Zoom
// account link). Counted against the meeting-integrations quota.
type Integration struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID  primitive.ObjectID `bson:"church_id" json:"church_id"`
	Provider  string             `bson:"provider" json:"provider"` // zoom | meet
	Label     string             `bson:"label,omitempty" json:"label,omitempty"`
	AccountID string             `bson:"account_id,omitempty" json:"account_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
