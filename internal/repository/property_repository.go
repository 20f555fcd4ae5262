package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"spacemarket/internal/model"
)

// ErrVectorsUnsupported is returned when the store keeps no feature vectors
var ErrVectorsUnsupported = errors.New("store does not support feature vectors")

// PropertyRepository maps property documents to model values
type PropertyRepository struct {
	store DocumentStore
}

// NewPropertyRepository creates a property repository over a document store
func NewPropertyRepository(store DocumentStore) *PropertyRepository {
	return &PropertyRepository{store: store}
}

// decodeProperties skips documents that do not decode, so one malformed
// record cannot fail a whole query.
func decodeProperties(docs []Document) ([]model.Property, error) {
	properties := make([]model.Property, 0, len(docs))
	for _, doc := range docs {
		var p model.Property
		if err := decodeDocument(doc, &p); err != nil {
			slog.Warn("Skipping undecodable property", "id", doc.ID, "error", err)
			continue
		}
		properties = append(properties, p)
	}
	return properties, nil
}

// FetchAll returns every property
func (r *PropertyRepository) FetchAll(ctx context.Context) ([]model.Property, error) {
	docs, err := r.store.FetchAll(ctx, CollectionProperties)
	if err != nil {
		return nil, err
	}
	return decodeProperties(docs)
}

// FetchWhere returns properties matching every equality
func (r *PropertyRepository) FetchWhere(ctx context.Context, eq ...Equality) ([]model.Property, error) {
	docs, err := r.store.FetchWhere(ctx, CollectionProperties, eq...)
	if err != nil {
		return nil, err
	}
	return decodeProperties(docs)
}

// FetchRange returns properties satisfying every range
func (r *PropertyRepository) FetchRange(ctx context.Context, ranges ...Range) ([]model.Property, error) {
	docs, err := r.store.FetchRange(ctx, CollectionProperties, ranges...)
	if err != nil {
		return nil, err
	}
	return decodeProperties(docs)
}

// Get returns a property, or nil when it does not exist
func (r *PropertyRepository) Get(ctx context.Context, id string) (*model.Property, error) {
	doc, err := r.store.Get(ctx, CollectionProperties, id)
	if err != nil || doc == nil {
		return nil, err
	}
	var p model.Property
	if err := decodeDocument(*doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a new property. The location key and creation time are set here.
func (r *PropertyRepository) Create(ctx context.Context, p *model.Property) (string, error) {
	p.LocationKeys = p.DeriveLocationKeys()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = "active"
	}
	data, err := encodeDocument(p)
	if err != nil {
		return "", err
	}
	id, err := r.store.Insert(ctx, CollectionProperties, data)
	if err != nil {
		return "", err
	}
	p.ID = id
	return id, nil
}

// Update applies an owner edit to the stored property p
func (r *PropertyRepository) Update(ctx context.Context, p *model.Property, upd model.PropertyUpdate) error {
	fields := map[string]any{}
	if upd.Title != nil {
		p.Title = *upd.Title
		fields["title"] = p.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
		fields["description"] = p.Description
	}
	if upd.Address != nil {
		p.Address = *upd.Address
		fields["address"] = p.Address
	}
	if upd.Price != nil {
		p.Price = *upd.Price
		fields["price"] = p.Price
	}
	if upd.Status != nil {
		p.Status = *upd.Status
		fields["status"] = p.Status
	}
	if upd.Featured != nil {
		p.Featured = *upd.Featured
		fields["featured"] = p.Featured
	}
	if upd.Location != nil {
		p.Location = *upd.Location
		fields["location"] = p.Location
	}
	// the keys are rewritten on every update so older documents pick them up
	p.LocationKeys = p.DeriveLocationKeys()
	fields["locationKeys"] = p.LocationKeys

	now := time.Now().UTC()
	p.UpdatedAt = &now
	fields["updatedAt"] = now.Format(time.RFC3339Nano)

	if err := r.store.Update(ctx, CollectionProperties, p.ID, fields); err != nil {
		return err
	}
	return nil
}

// Delete removes a property
func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionProperties, id)
}

// Featured returns up to limit active featured properties, newest first
func (r *PropertyRepository) Featured(ctx context.Context, limit int) ([]model.Property, error) {
	properties, err := r.FetchWhere(ctx,
		Equality{Field: "featured", Value: true},
		Equality{Field: "status", Value: "active"},
	)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(properties, func(i, j int) bool {
		return properties[i].CreatedAt.After(properties[j].CreatedAt)
	})
	if limit > 0 && len(properties) > limit {
		properties = properties[:limit]
	}
	return properties, nil
}

// SetFeatures stores the numeric feature vector of a property
func (r *PropertyRepository) SetFeatures(ctx context.Context, id string, vec []float32) error {
	index, ok := r.store.(VectorIndex)
	if !ok {
		return ErrVectorsUnsupported
	}
	if err := index.SetVector(ctx, CollectionProperties, id, vec); err != nil {
		return fmt.Errorf("failed to store features for %s: %w", id, err)
	}
	return nil
}

// Comparables returns the properties nearest to id by feature vector
func (r *PropertyRepository) Comparables(ctx context.Context, id string, limit int) ([]model.Property, error) {
	index, ok := r.store.(VectorIndex)
	if !ok {
		return nil, ErrVectorsUnsupported
	}
	docs, err := index.Nearest(ctx, CollectionProperties, id, limit)
	if err != nil {
		return nil, err
	}
	return decodeProperties(docs)
}
