package service

import (
	"context"
	"fmt"
	"log/slog"

	"spacemarket/internal/config"
	"spacemarket/internal/model"
)

// PredictionService prices listing attributes with the external price model
type PredictionService struct {
	model    PriceModel
	profiles config.PredictionProfiles
	logger   *slog.Logger
}

// NewPredictionService creates a prediction service
func NewPredictionService(priceModel PriceModel, profiles config.PredictionProfiles, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		model:    priceModel,
		profiles: profiles,
		logger:   logger,
	}
}

// Profile returns the wire contract used for a family
func (s *PredictionService) Profile(family model.Family) (config.PredictionProfile, error) {
	profile, ok := s.profiles[string(family)]
	if !ok {
		return config.PredictionProfile{}, fmt.Errorf("no prediction profile for family %q", family)
	}
	return profile, nil
}

// Predict validates and shapes the attributes, sends one request and
// normalizes the response. Invalid input never reaches the network.
func (s *PredictionService) Predict(ctx context.Context, attrs model.PropertyAttributes) (model.Prediction, error) {
	if attrs == nil {
		return model.Prediction{}, &model.ValidationError{Field: "propertyType", Message: "Please select property type and city"}
	}
	profile, err := s.Profile(attrs.Family())
	if err != nil {
		return model.Prediction{}, err
	}
	payload, err := BuildPayload(attrs, profile)
	if err != nil {
		return model.Prediction{}, err
	}

	body, err := s.model.Post(ctx, profile.Endpoint, payload)
	if err != nil {
		s.logger.Warn("price model request failed",
			"family", attrs.Family(),
			"endpoint", profile.Endpoint,
			"error", err)
		return model.Prediction{}, &model.PredictionUnavailable{Reason: "price model request failed", Err: err}
	}

	prediction, err := NormalizeResponse(body)
	if err != nil {
		s.logger.Warn("price model returned no usable price",
			"family", attrs.Family(),
			"endpoint", profile.Endpoint,
			"error", err)
		return model.Prediction{}, err
	}

	s.logger.Debug("price predicted",
		"family", attrs.Family(),
		"type", attrs.PropertyType(),
		"price", prediction.Price)
	return prediction, nil
}
