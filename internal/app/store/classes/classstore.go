// internal/app/store/classes/classstore.go
package classstore

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

var ErrNotFound = errors.New("class not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("classes")}
}

func (s *Store) Create(ctx context.Context, class models.Class) (models.Class, error) {
	now := time.Now().UTC()
	class.ID = primitive.NewObjectID()
	class.TitleCI = text.Fold(class.Title)
	class.CreatedAt = now
	class.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, class); err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (s *Store) GetScoped(ctx context.Context, id, churchID primitive.ObjectID) (models.Class, error) {
	var class models.Class
	err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&class)
	if err == mongo.ErrNoDocuments {
		return models.Class{}, ErrNotFound
	}
	if err != nil {
		return models.Class{}, err
	}
	return class, nil
}

// Update applies a partial update built by the caller. The church filter
// keeps the write inside the tenant.
func (s *Store) Update(ctx context.Context, id, churchID primitive.ObjectID, set bson.M) error {
	if set == nil {
		set = bson.M{}
	}
	if title, ok := set["title"].(string); ok {
		set["title_ci"] = text.Fold(title)
	}
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "church_id": churchID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignFacilitator sets or clears the facilitator for a class.
func (s *Store) AssignFacilitator(ctx context.Context, id, churchID primitive.ObjectID, facilitatorID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if facilitatorID == nil {
		update["$unset"] = bson.M{"facilitator_id": ""}
	} else {
		update["$set"].(bson.M)["facilitator_id"] = *facilitatorID
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "church_id": churchID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMeeting attaches a meeting link from a provider integration.
func (s *Store) SetMeeting(ctx context.Context, id, churchID primitive.ObjectID, provider, url string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "church_id": churchID},
		bson.M{"$set": bson.M{
			"meeting_provider": provider,
			"meeting_url":      url,
			"updated_at":       time.Now().UTC(),
		}})
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

// DeleteByCourse removes every class under a course.
func (s *Store) DeleteByCourse(ctx context.Context, courseID, churchID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"course_id": courseID, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCourses removes classes under any of the given courses, used for
// program-level cascades.
func (s *Store) DeleteByCourses(ctx context.Context, churchID primitive.ObjectID, courseIDs []primitive.ObjectID) (int64, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"church_id": churchID, "course_id": bson.M{"$in": courseIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Class, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var classes []models.Class
	if err := cur.All(ctx, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
