package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
	"spacemarket/internal/storage"
)

// FeaturedLimit is the number of properties shown as featured
const FeaturedLimit = 4

// PropertyService handles property browsing and owner edits
type PropertyService struct {
	repo    *repository.PropertyRepository
	planner *Planner
	objects storage.ObjectStore
	logger  *slog.Logger
}

// NewPropertyService creates a new property service. objects may be nil,
// in which case stored image references are returned as they are.
func NewPropertyService(
	repo *repository.PropertyRepository,
	planner *Planner,
	objects storage.ObjectStore,
	logger *slog.Logger,
) *PropertyService {
	return &PropertyService{
		repo:    repo,
		planner: planner,
		objects: objects,
		logger:  logger,
	}
}

// Search filters and orders properties
func (s *PropertyService) Search(ctx context.Context, c model.FilterCriteria) (*model.PropertyListResponse, error) {
	startTime := time.Now()

	result, err := s.planner.Execute(ctx, c)
	if err != nil {
		return nil, err
	}
	s.resolveImages(ctx, result.Properties)

	return &model.PropertyListResponse{
		Results: result.Properties,
		Total:   len(result.Properties),
		Route:   string(result.Plan.Route),
		Took:    time.Since(startTime).Milliseconds(),
	}, nil
}

// Get returns one property
func (s *PropertyService) Get(ctx context.Context, id string) (*model.Property, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, &model.QueryFailed{Op: "get", Err: err}
	}
	if p == nil {
		return nil, fmt.Errorf("property %s: %w", id, model.ErrNotFound)
	}
	props := []model.Property{*p}
	s.resolveImages(ctx, props)
	return &props[0], nil
}

// Featured returns the newest featured active properties
func (s *PropertyService) Featured(ctx context.Context) ([]model.Property, error) {
	props, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, &model.QueryFailed{Op: "featured", Err: err}
	}
	s.resolveImages(ctx, props)
	return props, nil
}

// Update applies an edit to a property owned by uid
func (s *PropertyService) Update(ctx context.Context, uid, id string, upd model.PropertyUpdate) (*model.Property, error) {
	p, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p, upd); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	s.logger.Info("property updated", "property", id, "owner", uid)
	return p, nil
}

// Delete removes a property owned by uid
func (s *PropertyService) Delete(ctx context.Context, uid, id string) error {
	if _, err := s.owned(ctx, uid, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	s.logger.Info("property deleted", "property", id, "owner", uid)
	return nil
}

// Comparables returns listings nearest to id by feature vector
func (s *PropertyService) Comparables(ctx context.Context, id string, limit int) ([]model.Property, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	props, err := s.repo.Comparables(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	s.resolveImages(ctx, props)
	return props, nil
}

func (s *PropertyService) owned(ctx context.Context, uid, id string) (*model.Property, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, &model.QueryFailed{Op: "get", Err: err}
	}
	if p == nil {
		return nil, fmt.Errorf("property %s: %w", id, model.ErrNotFound)
	}
	if p.UserID != uid {
		return nil, fmt.Errorf("property %s: %w", id, model.ErrForbidden)
	}
	return p, nil
}

// resolveImages swaps stored object keys for download URLs
func (s *PropertyService) resolveImages(ctx context.Context, props []model.Property) {
	if s.objects == nil {
		return
	}
	for i := range props {
		p := &props[i]
		for j, img := range p.Images {
			p.Images[j] = s.imageURL(ctx, img)
		}
		p.Image = s.imageURL(ctx, p.Image)
	}
}

func (s *PropertyService) imageURL(ctx context.Context, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	url, err := s.objects.URL(ctx, ref)
	if err != nil {
		s.logger.Warn("failed to presign image", "key", ref, "error", err)
		return ref
	}
	return url
}
