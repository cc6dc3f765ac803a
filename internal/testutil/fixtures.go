package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateChurch creates an active church on the given plan.
func (f *Fixtures) CreateChurch(ctx context.Context, name, subdomain, plan string) models.Church {
	f.t.Helper()

	now := time.Now().UTC()
	church := models.Church{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Subdomain: subdomain,
		Plan:      plan,
		Status:    models.ChurchActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("churches").InsertOne(ctx, church); err != nil {
		f.t.Fatalf("failed to create test church: %v", err)
	}
	return church
}

// CreateSuspendedChurch creates a church in the suspended state.
func (f *Fixtures) CreateSuspendedChurch(ctx context.Context, name, subdomain string) models.Church {
	f.t.Helper()

	church := f.CreateChurch(ctx, name, subdomain, models.PlanFree)
	_, err := f.db.Collection("churches").UpdateByID(ctx, church.ID,
		map[string]any{"$set": map[string]any{"status": models.ChurchSuspended}})
	if err != nil {
		f.t.Fatalf("failed to suspend test church: %v", err)
	}
	church.Status = models.ChurchSuspended
	return church
}

// CreateUser creates an active user with the given role, optionally scoped
// to a church (nil for superadmins).
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, churchID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		SubjectID:  "subj-" + primitive.NewObjectID().Hex(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		Status:     models.UserActive,
		ChurchID:   churchID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent creates an active student in the given church.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string, churchID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleStudent, &churchID)
}

// CreateProgram creates a program row; published controls whether it counts
// against the programs quota.
func (f *Fixtures) CreateProgram(ctx context.Context, churchID primitive.ObjectID, title string, published bool) models.Program {
	f.t.Helper()

	now := time.Now().UTC()
	program := models.Program{
		ID:        primitive.NewObjectID(),
		ChurchID:  churchID,
		Title:     title,
		TitleCI:   text.Fold(title),
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("programs").InsertOne(ctx, program); err != nil {
		f.t.Fatalf("failed to create test program: %v", err)
	}
	return program
}

// CreateCourse creates a course under the given program.
func (f *Fixtures) CreateCourse(ctx context.Context, churchID, programID primitive.ObjectID, title string) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	course := models.Course{
		ID:        primitive.NewObjectID(),
		ChurchID:  churchID,
		ProgramID: programID,
		Title:     title,
		TitleCI:   text.Fold(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return course
}

// CreateClass creates a class under the given course.
func (f *Fixtures) CreateClass(ctx context.Context, churchID, courseID primitive.ObjectID, title string, published, selfEnroll bool) models.Class {
	f.t.Helper()

	now := time.Now().UTC()
	class := models.Class{
		ID:                  primitive.NewObjectID(),
		ChurchID:            churchID,
		CourseID:            courseID,
		Title:               title,
		TitleCI:             text.Fold(title),
		Published:           published,
		AllowSelfEnrollment: selfEnroll,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := f.db.Collection("classes").InsertOne(ctx, class); err != nil {
		f.t.Fatalf("failed to create test class: %v", err)
	}
	return class
}

// CreateEnrollment creates an active enrollment row.
func (f *Fixtures) CreateEnrollment(ctx context.Context, churchID, classID, studentID primitive.ObjectID) models.Enrollment {
	f.t.Helper()

	now := time.Now().UTC()
	enrollment := models.Enrollment{
		ID:         primitive.NewObjectID(),
		ChurchID:   churchID,
		ClassID:    classID,
		StudentID:  studentID,
		Status:     models.EnrollmentEnrolled,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("enrollments").InsertOne(ctx, enrollment); err != nil {
		f.t.Fatalf("failed to create test enrollment: %v", err)
	}
	return enrollment
}
