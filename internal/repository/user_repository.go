package repository

import (
	"context"
	"time"

	"spacemarket/internal/model"
)

// UserRepository stores user profiles under users/{uid}
type UserRepository struct {
	store DocumentStore
}

// NewUserRepository creates a user repository over a document store
func NewUserRepository(store DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

// Get returns a profile, or nil when it does not exist
func (r *UserRepository) Get(ctx context.Context, uid string) (*model.User, error) {
	doc, err := r.store.Get(ctx, CollectionUsers, uid)
	if err != nil || doc == nil {
		return nil, err
	}
	var u model.User
	if err := decodeDocument(*doc, &u); err != nil {
		return nil, err
	}
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	return &u, nil
}

// Create writes a new profile with an empty favorites list
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	data, err := encodeDocument(u)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, CollectionUsers, u.ID, data)
}

// SetRole changes the role of a user
func (r *UserRepository) SetRole(ctx context.Context, uid string, role model.Role) error {
	return r.store.Update(ctx, CollectionUsers, uid, map[string]any{"role": string(role)})
}

// SetFavorites replaces the favorites list of a user
func (r *UserRepository) SetFavorites(ctx context.Context, uid string, favorites []string) error {
	list := make([]any, 0, len(favorites))
	for _, f := range favorites {
		list = append(list, f)
	}
	return r.store.Update(ctx, CollectionUsers, uid, map[string]any{"favorites": list})
}
