// internal/app/store/courses/coursestore.go
package coursestore

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

var ErrNotFound = errors.New("course not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

func (s *Store) Create(ctx context.Context, course models.Course) (models.Course, error) {
	now := time.Now().UTC()
	course.ID = primitive.NewObjectID()
	course.TitleCI = text.Fold(course.Title)
	course.CreatedAt = now
	course.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, course); err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (s *Store) GetScoped(ctx context.Context, id, churchID primitive.ObjectID) (models.Course, error) {
	var course models.Course
	err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&course)
	if err == mongo.ErrNoDocuments {
		return models.Course{}, ErrNotFound
	}
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

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

func (s *Store) Delete(ctx context.Context, id, churchID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByProgram removes every course under a program, used when a program
// is deleted.
func (s *Store) DeleteByProgram(ctx context.Context, programID, churchID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"program_id": programID, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

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

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Course, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var courses []models.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
