package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
	"spacemarket/internal/session"
	"spacemarket/internal/storage"
)

// ErrStorageDisabled is returned for image uploads when no bucket is configured
var ErrStorageDisabled = errors.New("image storage is not configured")

// ListingService drives the listing form of a seller: price prediction,
// image upload and the final submission. Predict and Submit are guarded per
// form so that a second call while one is in flight is skipped.
type ListingService struct {
	sessions    session.Store
	predictions *PredictionService
	properties  *repository.PropertyRepository
	users       *repository.UserRepository
	objects     storage.ObjectStore
	logger      *slog.Logger
}

// NewListingService creates a listing service. objects may be nil.
func NewListingService(
	sessions session.Store,
	predictions *PredictionService,
	properties *repository.PropertyRepository,
	users *repository.UserRepository,
	objects storage.ObjectStore,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		sessions:    sessions,
		predictions: predictions,
		properties:  properties,
		users:       users,
		objects:     objects,
		logger:      logger,
	}
}

// StartForm opens a new form session for a user allowed to sell
func (s *ListingService) StartForm(ctx context.Context, uid string) (*session.Form, error) {
	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.Role.CanSell() {
		return nil, fmt.Errorf("listing requires a seller account: %w", model.ErrForbidden)
	}
	return s.sessions.Create(ctx, uid)
}

// Form returns a form owned by uid
func (s *ListingService) Form(ctx context.Context, uid, formID string) (*session.Form, error) {
	form, err := s.sessions.Get(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", formID, model.ErrNotFound)
	}
	if form.OwnerID != uid {
		return nil, fmt.Errorf("form %s: %w", formID, model.ErrForbidden)
	}
	return form, nil
}

// Predict prices the given form state and stores the result on the form.
// A result that arrives after the form was discarded is dropped.
func (s *ListingService) Predict(ctx context.Context, uid, formID string, state model.FormState) (*model.PredictOutcome, error) {
	if _, err := s.Form(ctx, uid, formID); err != nil {
		return nil, err
	}

	guard := session.PredictGuard(formID)
	acquired, err := s.sessions.Acquire(ctx, guard)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire guard: %w", err)
	}
	if !acquired {
		s.logger.Debug("prediction already in flight", "form", formID)
		return &model.PredictOutcome{Skipped: true}, nil
	}
	defer s.release(guard)

	attrs, err := DecodeAttributes(state)
	if err != nil {
		return nil, err
	}
	prediction, err := s.predictions.Predict(ctx, attrs)
	if err != nil {
		return nil, err
	}

	applied, err := s.sessions.Update(ctx, formID, func(f *session.Form) {
		f.State = state
		f.PredictedPrice = prediction.Price
		f.LocationFeatures = prediction.LocationFeatures
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store prediction: %w", err)
	}
	if !applied {
		s.logger.Info("form discarded before prediction completed", "form", formID)
	}

	return &model.PredictOutcome{
		PredictedPrice:   prediction.Price,
		LocationFeatures: prediction.LocationFeatures,
	}, nil
}

// UploadImage stores one listing image and records its object key on the form
func (s *ListingService) UploadImage(ctx context.Context, uid, formID, filename, contentType string, size int64, data io.Reader) (string, error) {
	if s.objects == nil {
		return "", ErrStorageDisabled
	}
	if _, err := s.Form(ctx, uid, formID); err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", &model.ValidationError{Field: "image", Message: "only image uploads are accepted"}
	}

	key := storage.ImageKey(formID, filename)
	if err := s.objects.Put(ctx, key, data, size, contentType); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	applied, err := s.sessions.Update(ctx, formID, func(f *session.Form) {
		f.Images = append(f.Images, key)
	})
	if err != nil {
		return "", fmt.Errorf("failed to record image: %w", err)
	}
	if !applied {
		return "", fmt.Errorf("form %s: %w", formID, model.ErrNotFound)
	}
	return key, nil
}

// Submit creates the property from a priced form and closes the form. The
// form must carry a prediction; a concurrent second submit is skipped.
func (s *ListingService) Submit(ctx context.Context, uid, formID string, req model.SubmitListingRequest) (*model.PredictOutcome, error) {
	if _, err := s.Form(ctx, uid, formID); err != nil {
		return nil, err
	}

	guard := session.SubmitGuard(formID)
	acquired, err := s.sessions.Acquire(ctx, guard)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire guard: %w", err)
	}
	if !acquired {
		s.logger.Debug("submission already in flight", "form", formID)
		return &model.PredictOutcome{Skipped: true}, nil
	}
	defer s.release(guard)

	// reload under the guard: the first submit may have discarded the form
	form, err := s.Form(ctx, uid, formID)
	if err != nil {
		return nil, err
	}
	if form.PredictedPrice <= 0 {
		return nil, &model.ValidationError{Field: "predictedPrice", Message: "Please get a price prediction first"}
	}
	attrs, err := DecodeAttributes(form.State)
	if err != nil {
		return nil, err
	}

	property := buildProperty(uid, form, attrs, req)
	id, err := s.properties.Create(ctx, property)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.logger.Info("property listed", "property", id, "type", property.Type, "owner", uid)

	if vec, err := FeatureVector(attrs); err == nil {
		if err := s.properties.SetFeatures(ctx, id, vec); err != nil && !errors.Is(err, repository.ErrVectorsUnsupported) {
			s.logger.Warn("failed to store feature vector", "property", id, "error", err)
		}
	}

	if err := s.sessions.Discard(ctx, formID); err != nil {
		s.logger.Warn("failed to discard form", "form", formID, "error", err)
	}

	return &model.PredictOutcome{
		PredictedPrice:   form.PredictedPrice,
		LocationFeatures: form.LocationFeatures,
		PropertyID:       id,
	}, nil
}

// Discard abandons a form; later results for it are dropped
func (s *ListingService) Discard(ctx context.Context, uid, formID string) error {
	if _, err := s.Form(ctx, uid, formID); err != nil {
		return err
	}
	return s.sessions.Discard(ctx, formID)
}

func (s *ListingService) release(guard string) {
	// released with a fresh context so a cancelled request cannot leave the guard held
	if err := s.sessions.Release(context.Background(), guard); err != nil {
		s.logger.Warn("failed to release guard", "guard", guard, "error", err)
	}
}

func buildProperty(uid string, form *session.Form, attrs model.PropertyAttributes, req model.SubmitListingRequest) *model.Property {
	predicted := form.PredictedPrice
	p := &model.Property{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Location:         strings.TrimSpace(req.Location),
		Address:          req.Address,
		Price:            req.Price,
		PredictedPrice:   &predicted,
		Type:             attrs.PropertyType(),
		UserID:           uid,
		LocationFeatures: form.LocationFeatures,
		Images:           append([]string(nil), form.Images...),
	}
	if p.Price <= 0 {
		p.Price = predicted
	}
	if len(p.Images) > 0 {
		p.Image = p.Images[0]
	}

	switch a := attrs.(type) {
	case *model.CoworkingAttributes:
		d := commonDetails(a.CommonAttributes)
		d.TotalCenterArea = positive(a.TotalCenterArea)
		d.SeatingCapacity = positive(a.SeatingCapacity)
		d.FloorplateArea = positive(a.FloorplateArea)
		d.BuildingType = a.BuildingType
		p.PropertyDetails = d
		p.Area = a.TotalCenterArea
	case *model.OfficeRentAttributes:
		d := commonDetails(a.CommonAttributes)
		d.FloorSize = positive(a.FloorSize)
		d.LockIn = positive(a.LockIn)
		d.Floors = positive(a.Floors)
		d.BuildingGrade = model.Grade(a.BuildingGrade)
		d.YearBuilt = positive(a.YearBuilt)
		d.Furnishing = a.Furnishing
		d.BuildingType = a.BuildingType
		p.PropertyDetails = d
		p.Area = a.FloorSize
	case *model.GenericAttributes:
		p.Bedrooms = int(a.Bedrooms)
		p.Bathrooms = int(a.Bathrooms)
		p.Area = a.Area
		if p.Location == "" {
			p.Location = a.Location
		}
		if p.Address == "" {
			p.Address = a.Address
		}
	}

	if d := p.PropertyDetails; d != nil {
		d.ContactNumber = req.ContactNumber
		d.Email = req.Email
	}
	return p
}

func commonDetails(c model.CommonAttributes) *model.PropertyDetails {
	amenities := make(map[string]bool)
	for id, on := range c.Amenities {
		if on {
			amenities[id] = true
		}
	}
	return &model.PropertyDetails{
		City:                c.City,
		TotalWeeklyHours:    positive(c.TotalWeeklyHours),
		DaysOpenPerWeek:     positive(c.DaysOpenPerWeek),
		HasDifferentTimings: c.HasDifferentTimings,
		WeekdayOpeningTime:  c.WeekdayOpeningTime,
		WeekdayClosingTime:  c.WeekdayClosingTime,
		NearestMetro:        positive(c.NearestMetro),
		NearestBus:          positive(c.NearestBus),
		NearestTrain:        positive(c.NearestTrain),
		NearestAirport:      positive(c.NearestAirport),
		NearestHospital:     positive(c.NearestHospital),
		Amenities:           amenities,
	}
}

// positive returns nil for unset (zero or negative) numbers
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
