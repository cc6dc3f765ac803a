// internal/app/store/churches/churchstore.go
package churchstore

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
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateSubdomain = errors.New("a church with this subdomain already exists")
	ErrNotFound           = errors.New("church not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("churches")}
}

func (s *Store) Create(ctx context.Context, church models.Church) (models.Church, error) {
	now := time.Now().UTC()
	church.ID = primitive.NewObjectID()
	church.NameCI = text.Fold(church.Name)
	if church.Plan == "" {
		church.Plan = models.PlanFree
	}
	if church.Status == "" {
		church.Status = models.ChurchActive
	}
	church.CreatedAt = now
	church.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, church)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Church{}, ErrDuplicateSubdomain
		}
		return models.Church{}, err
	}
	return church, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error) {
	var church models.Church
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&church)
	if err == mongo.ErrNoDocuments {
		return models.Church{}, ErrNotFound
	}
	if err != nil {
		return models.Church{}, err
	}
	return church, nil
}

func (s *Store) GetBySubdomain(ctx context.Context, subdomain string) (models.Church, error) {
	var church models.Church
	err := s.c.FindOne(ctx, bson.M{"subdomain": subdomain}).Decode(&church)
	if err == mongo.ErrNoDocuments {
		return models.Church{}, ErrNotFound
	}
	if err != nil {
		return models.Church{}, err
	}
	return church, nil
}

// GetByStripeCustomerID resolves a church from its stored billing customer
// linkage. Used by webhook reconciliation for created/updated events.
func (s *Store) GetByStripeCustomerID(ctx context.Context, customerID string) (models.Church, error) {
	if customerID == "" {
		return models.Church{}, ErrNotFound
	}
	var church models.Church
	err := s.c.FindOne(ctx, bson.M{"stripe_customer_id": customerID}).Decode(&church)
	if err == mongo.ErrNoDocuments {
		return models.Church{}, ErrNotFound
	}
	if err != nil {
		return models.Church{}, err
	}
	return church, nil
}

// GetByStripeSubscriptionID resolves a church from its stored subscription
// linkage. Used by webhook reconciliation for deleted events.
func (s *Store) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (models.Church, error) {
	if subscriptionID == "" {
		return models.Church{}, ErrNotFound
	}
	var church models.Church
	err := s.c.FindOne(ctx, bson.M{"stripe_subscription_id": subscriptionID}).Decode(&church)
	if err == mongo.ErrNoDocuments {
		return models.Church{}, ErrNotFound
	}
	if err != nil {
		return models.Church{}, err
	}
	return church, nil
}

// UpdateName changes the display name and refreshes UpdatedAt.
func (s *Store) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetStatus moves the church between active and suspended.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStripeCustomerID links the church to a billing customer. The filter
// only matches while no customer id is stored, so a concurrent first
// checkout cannot overwrite an existing linkage.
func (s *Store) SetStripeCustomerID(ctx context.Context, id primitive.ObjectID, customerID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "stripe_customer_id": bson.M{"$in": bson.A{"", nil}}},
		bson.M{"$set": bson.M{
			"stripe_customer_id": customerID,
			"updated_at":         time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyBilling sets the subscription id and plan for the church matching the
// given customer id. The update is conditional on the stored customer id so
// a stale or re-delivered event for a relinked customer cannot clobber
// another church's state.
func (s *Store) ApplyBilling(ctx context.Context, customerID, subscriptionID, plan string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"stripe_customer_id": customerID},
		bson.M{"$set": bson.M{
			"stripe_subscription_id": subscriptionID,
			"plan":                   plan,
			"updated_at":             time.Now().UTC(),
		}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ClearSubscription clears the subscription linkage and downgrades to the
// free plan, keyed on the stored subscription id. Re-delivery finds no
// matching document and is a no-op.
func (s *Store) ClearSubscription(ctx context.Context, subscriptionID string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"stripe_subscription_id": subscriptionID},
		bson.M{"$set": bson.M{
			"stripe_subscription_id": "",
			"plan":                   models.PlanFree,
			"updated_at":             time.Now().UTC(),
		}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Find returns churches matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Church, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var churches []models.Church
	if err := cur.All(ctx, &churches); err != nil {
		return nil, err
	}
	return churches, nil
}

// Count returns the number of churches matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
