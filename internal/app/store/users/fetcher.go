package userstore

import (
	"context"

	"github.com/chapelware/chapelhub/internal/app/system/auth"
	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher implements auth.UserFetcher so session middleware refreshes user
// data on each request. Role changes and disabled accounts take effect
// immediately.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a Fetcher backed by the users collection.
func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{store: store}
}

// FetchSessionUser loads fresh session data by user id. Returns ok=false
// for malformed ids, missing users, or any status other than active.
func (f *Fetcher) FetchSessionUser(ctx context.Context, userID string) (*auth.SessionUser, bool) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}
	user, err := f.store.GetByID(ctx, id)
	if err != nil {
		return nil, false
	}
	if user.Status != models.UserActive {
		return nil, false
	}
	churchHex := ""
	if user.ChurchID != nil {
		churchHex = user.ChurchID.Hex()
	}
	return &auth.SessionUser{
		ID:       user.ID.Hex(),
		Name:     user.FullName,
		Email:    user.Email,
		Role:     user.Role,
		ChurchID: churchHex,
	}, true
}
