package models

import "time"

// Well-known platform setting keys.
const (
	SettingRegistrationOpen = "registration_open"
)

// PlatformSetting is a platform-wide key/value row (not per church).
type PlatformSetting struct {
	Key       string    `bson:"_id" json:"key"`
	Value     string    `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
