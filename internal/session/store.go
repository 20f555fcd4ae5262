// Package session keeps listing form sessions and their in-flight guards.
package session

import (
	"context"
	"time"

	"spacemarket/internal/model"
)

// Form is the server-side state of one listing form instance
type Form struct {
	ID               string                  `json:"id"`
	OwnerID          string                  `json:"ownerId"`
	State            model.FormState         `json:"state,omitempty"`
	PredictedPrice   float64                 `json:"predictedPrice,omitempty"`
	LocationFeatures *model.LocationFeatures `json:"locationFeatures,omitempty"`
	Images           []string                `json:"images,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
}

// Store keeps form sessions. Update applies fn only when the form still
// exists and reports whether it did, so late results for a discarded form
// are dropped. Acquire is a non-blocking try-lock on a guard key.
type Store interface {
	Create(ctx context.Context, ownerID string) (*Form, error)
	Get(ctx context.Context, id string) (*Form, error)
	Update(ctx context.Context, id string, fn func(*Form)) (bool, error)
	Discard(ctx context.Context, id string) error
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// PredictGuard is the in-flight guard key of a form's price prediction
func PredictGuard(formID string) string { return "form:" + formID + ":predict" }

// SubmitGuard is the in-flight guard key of a form's submission
func SubmitGuard(formID string) string { return "form:" + formID + ":submit" }
