// internal/app/store/settings/settingstore.go
package settingstore

import (
	"context"
	"errors"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds platform-wide settings maintained by super admins. Settings
// are keyed strings, one document per key.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("setting not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("platform_settings")}
}

// Get returns the setting for a key.
func (s *Store) Get(ctx context.Context, key string) (models.PlatformSetting, error) {
	var setting models.PlatformSetting
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&setting)
	if err == mongo.ErrNoDocuments {
		return models.PlatformSetting{}, ErrNotFound
	}
	if err != nil {
		return models.PlatformSetting{}, err
	}
	return setting, nil
}

// GetOrDefault returns the value for a key, or the fallback when the key
// has never been set.
func (s *Store) GetOrDefault(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.Get(ctx, key)
	if err == ErrNotFound {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Set upserts a setting.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

// All returns every platform setting.
func (s *Store) All(ctx context.Context) ([]models.PlatformSetting, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var settings []models.PlatformSetting
	if err := cur.All(ctx, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}
