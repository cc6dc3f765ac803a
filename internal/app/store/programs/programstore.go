// internal/app/store/programs/programstore.go
package programstore

import (
	"context"
	"errors"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("program not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("programs")}
}

func (s *Store) Create(ctx context.Context, program models.Program) (models.Program, error) {
	now := time.Now().UTC()
	program.ID = primitive.NewObjectID()
	program.TitleCI = text.Fold(program.Title)
	program.CreatedAt = now
	program.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, program); err != nil {
		return models.Program{}, err
	}
	return program, nil
}

// GetScoped loads a program only if it belongs to the given church. A
// program from another tenant is indistinguishable from a missing one.
func (s *Store) GetScoped(ctx context.Context, id, churchID primitive.ObjectID) (models.Program, error) {
	var program models.Program
	err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&program)
	if err == mongo.ErrNoDocuments {
		return models.Program{}, ErrNotFound
	}
	if err != nil {
		return models.Program{}, err
	}
	return program, nil
}

// Update modifies mutable fields; the church filter pins the write to the
// caller's tenant.
func (s *Store) Update(ctx context.Context, id, churchID primitive.ObjectID, title, description string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if title != "" {
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if description != "" {
		set["description"] = description
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "church_id": churchID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPublished publishes or unpublishes a program.
func (s *Store) SetPublished(ctx context.Context, id, churchID primitive.ObjectID, published bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "church_id": churchID},
		bson.M{"$set": bson.M{"published": published, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a program within the church scope.
func (s *Store) Delete(ctx context.Context, id, churchID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Reorder rewrites sort_order to match the given id order. Every write
// carries the church filter, so ids belonging to other tenants are silently
// skipped rather than moved.
func (s *Store) Reorder(ctx context.Context, churchID primitive.ObjectID, orderedIDs []primitive.ObjectID) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(orderedIDs))
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "church_id": churchID}).
			SetUpdate(bson.M{"$set": bson.M{"sort_order": i, "updated_at": now}}))
	}
	_, err := s.c.BulkWrite(ctx, writes)
	return err
}

// CountPublished counts published programs for a church. This is what the
// programs quota compares against.
func (s *Store) CountPublished(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"church_id": churchID, "published": true})
}

// Find returns programs matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Program, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var programs []models.Program
	if err := cur.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// Count returns the number of programs matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
