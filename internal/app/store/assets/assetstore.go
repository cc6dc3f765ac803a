// internal/app/store/assets/assetstore.go
package assetstore

import (
	"context"
	"errors"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("asset not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assets")}
}

func (s *Store) Create(ctx context.Context, asset models.Asset) (models.Asset, error) {
	asset.ID = primitive.NewObjectID()
	asset.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, asset); err != nil {
		return models.Asset{}, err
	}
	return asset, nil
}

func (s *Store) GetScoped(ctx context.Context, id, churchID primitive.ObjectID) (models.Asset, error) {
	var asset models.Asset
	err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&asset)
	if err == mongo.ErrNoDocuments {
		return models.Asset{}, ErrNotFound
	}
	if err != nil {
		return models.Asset{}, err
	}
	return asset, nil
}

func (s *Store) Delete(ctx context.Context, id, churchID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// TotalBytes sums the stored size of every asset the church owns. The
// storage quota compares the current total plus the incoming upload against
// the plan limit.
func (s *Store) TotalBytes(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"church_id": churchID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$byte_size"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Total, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Asset, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var assets []models.Asset
	if err := cur.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
