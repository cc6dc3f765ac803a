// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateEmail = errors.New("a user with this email already exists in this church")
	ErrNotFound       = errors.New("user not found")
	ErrBadInviteToken = errors.New("invite token does not match")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.FullNameCI = text.Fold(user.FullName)
	user.EmailCI = text.Fold(user.Email)
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.Status == "" {
		user.Status = models.UserActive
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, user)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateInvited inserts a facilitator/student invite: an "invited" user row
// carrying the bcrypt hash of the invite token. The plaintext token goes out
// of band (email) and is never stored.
func (s *Store) CreateInvited(ctx context.Context, user models.User, inviteToken string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(inviteToken), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user.Status = models.UserInvited
	user.InviteTokenHash = string(hash)
	return s.Create(ctx, user)
}

// ClaimInvite verifies the invite token for an invited user and activates
// the account, binding the identity provider subject id.
func (s *Store) ClaimInvite(ctx context.Context, id primitive.ObjectID, inviteToken, subjectID string) error {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id, "status": models.UserInvited}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.InviteTokenHash), []byte(inviteToken)) != nil {
		return ErrBadInviteToken
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status":     models.UserActive,
			"subject_id": subjectID,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{"invite_token_hash": ""},
	})
	return err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetBySubjectID looks up a user by the identity provider's subject id.
func (s *Store) GetBySubjectID(ctx context.Context, subjectID string) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"subject_id": subjectID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByEmailInChurch finds a user by folded email within one church.
func (s *Store) GetByEmailInChurch(ctx context.Context, email string, churchID primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{
		"email_ci":  text.Fold(email),
		"church_id": churchID,
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetPlatformByEmail finds a platform-scoped user (no church) by folded
// email. Superadmin sign-in resolves through here.
func (s *Store) GetPlatformByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{
		"email_ci":  text.Fold(email),
		"church_id": nil,
	}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SetSubjectID binds the identity provider subject to a user that does not
// have one yet. First-writer-wins: an already bound subject is not replaced.
func (s *Store) SetSubjectID(ctx context.Context, id primitive.ObjectID, subjectID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "subject_id": bson.M{"$in": bson.A{"", nil}}},
		bson.M{"$set": bson.M{"subject_id": subjectID, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteToSuperAdmin moves a user to platform scope with the superadmin
// role. Startup uses this to promote the configured operator account.
func (s *Store) PromoteToSuperAdmin(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"role": models.RoleSuperAdmin, "status": models.UserActive, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"church_id": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole changes a user's role. The church filter keeps the write inside
// the caller's tenant regardless of the id in the payload.
func (s *Store) UpdateRole(ctx context.Context, id, churchID primitive.ObjectID, role string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "church_id": churchID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user row. Scoped by church for tenant callers; platform
// callers pass primitive.NilObjectID to skip the scope filter.
func (s *Store) Delete(ctx context.Context, id, churchID primitive.ObjectID) (int64, error) {
	filter := bson.M{"_id": id}
	if churchID != primitive.NilObjectID {
		filter["church_id"] = churchID
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountSlotsByRole counts users of one role holding a plan slot within a
// church: active members plus pending invites. An invite reserves its slot
// when issued, so a batch of invites cannot all pass the quota check and
// then activate past the limit. Disabled accounts release their slot.
func (s *Store) CountSlotsByRole(ctx context.Context, churchID primitive.ObjectID, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"church_id": churchID,
		"role":      role,
		"status":    bson.M{"$in": []string{models.UserActive, models.UserInvited}},
	})
}

// Find returns users matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
