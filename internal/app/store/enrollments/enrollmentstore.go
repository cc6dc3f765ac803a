// internal/app/store/enrollments/enrollmentstore.go
package enrollmentstore

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
	ErrAlreadyEnrolled = errors.New("student already enrolled in class")
	ErrNotFound        = errors.New("enrollment not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("enrollments")}
}

// Enroll inserts an enrolled record. A partial unique index on
// (church_id, class_id, student_id) for status "enrolled" makes concurrent
// enrolls race-safe: exactly one insert wins and the rest see a duplicate
// key, surfaced as ErrAlreadyEnrolled.
func (s *Store) Enroll(ctx context.Context, churchID, classID, studentID primitive.ObjectID) (models.Enrollment, error) {
	now := time.Now().UTC()
	enr := models.Enrollment{
		ID:         primitive.NewObjectID(),
		ChurchID:   churchID,
		ClassID:    classID,
		StudentID:  studentID,
		Status:     models.EnrollmentEnrolled,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, enr); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Enrollment{}, ErrAlreadyEnrolled
		}
		return models.Enrollment{}, err
	}
	return enr, nil
}

// Drop marks an active enrollment dropped. Matching on status keeps the
// operation idempotent: a second drop finds nothing and reports ErrNotFound.
func (s *Store) Drop(ctx context.Context, churchID, classID, studentID primitive.ObjectID) error {
	return s.setStatus(ctx, churchID, classID, studentID, models.EnrollmentDropped)
}

// Complete marks an active enrollment completed.
func (s *Store) Complete(ctx context.Context, churchID, classID, studentID primitive.ObjectID) error {
	return s.setStatus(ctx, churchID, classID, studentID, models.EnrollmentCompleted)
}

func (s *Store) setStatus(ctx context.Context, churchID, classID, studentID primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"church_id":  churchID,
			"class_id":   classID,
			"student_id": studentID,
			"status":     models.EnrollmentEnrolled,
		},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the active enrollment for a student in a class, if any.
func (s *Store) Get(ctx context.Context, churchID, classID, studentID primitive.ObjectID) (models.Enrollment, error) {
	var enr models.Enrollment
	err := s.c.FindOne(ctx, bson.M{
		"church_id":  churchID,
		"class_id":   classID,
		"student_id": studentID,
		"status":     models.EnrollmentEnrolled,
	}).Decode(&enr)
	if err == mongo.ErrNoDocuments {
		return models.Enrollment{}, ErrNotFound
	}
	if err != nil {
		return models.Enrollment{}, err
	}
	return enr, nil
}

// CountDistinctEnrolledStudents counts students with at least one active
// enrollment in the church. This is the value the students quota compares
// against, so a student in three classes counts once.
func (s *Store) CountDistinctEnrolledStudents(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"church_id": churchID, "status": models.EnrollmentEnrolled}}},
		{{Key: "$group", Value: bson.M{"_id": "$student_id"}}},
		{{Key: "$count", Value: "n"}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].N, nil
}

// CountActiveInClass counts active enrollments in a single class, used for
// per-class capacity checks.
func (s *Store) CountActiveInClass(ctx context.Context, churchID, classID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"church_id": churchID,
		"class_id":  classID,
		"status":    models.EnrollmentEnrolled,
	})
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Enrollment, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var enrollments []models.Enrollment
	if err := cur.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
