package service

import (
	"context"
	"fmt"
	"log/slog"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
)

// UserService handles profiles, roles and favorites
type UserService struct {
	users      *repository.UserRepository
	properties *PropertyService
	logger     *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, properties *PropertyService, logger *slog.Logger) *UserService {
	return &UserService{users: users, properties: properties, logger: logger}
}

// Profile returns the profile of uid
func (s *UserService) Profile(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, &model.QueryFailed{Op: "get", Err: err}
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", uid, model.ErrNotFound)
	}
	return u, nil
}

// BecomeSeller upgrades a buyer to both roles; sellers are left unchanged
func (s *UserService) BecomeSeller(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.Role.CanSell() {
		return u, nil
	}
	if err := s.users.SetRole(ctx, uid, model.RoleBoth); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	u.Role = model.RoleBoth
	s.logger.Info("user became seller", "user", uid)
	return u, nil
}

// AddFavorite adds a property to the favorites of uid; adding twice is a no-op
func (s *UserService) AddFavorite(ctx context.Context, uid, propertyID string) ([]string, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if _, err := s.properties.Get(ctx, propertyID); err != nil {
		return nil, err
	}
	for _, id := range u.Favorites {
		if id == propertyID {
			return u.Favorites, nil
		}
	}
	favorites := append(u.Favorites, propertyID)
	if err := s.users.SetFavorites(ctx, uid, favorites); err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	return favorites, nil
}

// RemoveFavorite removes a property from the favorites of uid
func (s *UserService) RemoveFavorite(ctx context.Context, uid, propertyID string) ([]string, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	favorites := make([]string, 0, len(u.Favorites))
	for _, id := range u.Favorites {
		if id != propertyID {
			favorites = append(favorites, id)
		}
	}
	if len(favorites) == len(u.Favorites) {
		return favorites, nil
	}
	if err := s.users.SetFavorites(ctx, uid, favorites); err != nil {
		return nil, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return favorites, nil
}

// Favorites returns the favorite properties of uid. Favorites whose property
// no longer exists are skipped.
func (s *UserService) Favorites(ctx context.Context, uid string) ([]model.Property, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	props := make([]model.Property, 0, len(u.Favorites))
	for _, id := range u.Favorites {
		p, err := s.properties.Get(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		props = append(props, *p)
	}
	return props, nil
}
