// internal/app/store/integrations/integrationstore.go
package integrationstore

import (
	"context"
	"errors"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateProvider = errors.New("integration for provider already exists")
	ErrNotFound          = errors.New("integration not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("integrations")}
}

// Create adds a meeting integration. A unique index on
// (church_id, provider) keeps one integration per provider per church.
func (s *Store) Create(ctx context.Context, in models.Integration) (models.Integration, error) {
	in.ID = primitive.NewObjectID()
	in.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, in); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Integration{}, ErrDuplicateProvider
		}
		return models.Integration{}, err
	}
	return in, nil
}

func (s *Store) GetScoped(ctx context.Context, id, churchID primitive.ObjectID) (models.Integration, error) {
	var in models.Integration
	err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&in)
	if err == mongo.ErrNoDocuments {
		return models.Integration{}, ErrNotFound
	}
	if err != nil {
		return models.Integration{}, err
	}
	return in, nil
}

// GetByProvider returns the church's integration for a provider, if any.
func (s *Store) GetByProvider(ctx context.Context, churchID primitive.ObjectID, provider string) (models.Integration, error) {
	var in models.Integration
	err := s.c.FindOne(ctx, bson.M{"church_id": churchID, "provider": provider}).Decode(&in)
	if err == mongo.ErrNoDocuments {
		return models.Integration{}, ErrNotFound
	}
	if err != nil {
		return models.Integration{}, err
	}
	return in, nil
}

func (s *Store) Delete(ctx context.Context, id, churchID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByChurch counts configured integrations, compared against the
// meeting-integrations quota.
func (s *Store) CountByChurch(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"church_id": churchID})
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Integration, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var integrations []models.Integration
	if err := cur.All(ctx, &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}
