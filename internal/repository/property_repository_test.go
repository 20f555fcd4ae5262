package repository

import (
	"context"
	"testing"
	"time"

	"spacemarket/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyRepositoryCreateSetsLocationKeys(t *testing.T) {
	repo := NewPropertyRepository(NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		property model.Property
		want     []string
	}{
		{"location", model.Property{Title: "A", Location: "  Pune "}, []string{"pune"}},
		{"city only", model.Property{Title: "B", PropertyDetails: &model.PropertyDetails{City: "Mumbai"}}, []string{"mumbai"}},
		{"location and city", model.Property{Title: "C", Location: "Baner", PropertyDetails: &model.PropertyDetails{City: "pune"}},
			[]string{"baner", "pune"}},
		{"same location and city", model.Property{Title: "D", Location: "Pune", PropertyDetails: &model.PropertyDetails{City: "pune"}},
			[]string{"pune"}},
		{"none", model.Property{Title: "E"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.property
			id, err := repo.Create(ctx, &p)
			require.NoError(t, err)

			got, err := repo.Get(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.LocationKeys)
			assert.Equal(t, id, got.ID)
			assert.Equal(t, "active", got.Status)
		})
	}
}

func TestPropertyRepositoryUpdateRewritesLocationKeys(t *testing.T) {
	repo := NewPropertyRepository(NewMemoryStore())
	ctx := context.Background()

	p := &model.Property{Title: "Desk", Location: "Pune", Price: 100}
	_, err := repo.Create(ctx, p)
	require.NoError(t, err)

	loc := "Noida"
	price := 250.0
	require.NoError(t, repo.Update(ctx, p, model.PropertyUpdate{Location: &loc, Price: &price}))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"noida"}, got.LocationKeys)
	assert.Equal(t, 250.0, got.Price)
	assert.NotNil(t, got.UpdatedAt)
}

func TestPropertyRepositoryFeatured(t *testing.T) {
	repo := NewPropertyRepository(NewMemoryStore())
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		p := &model.Property{Title: "F", Featured: i != 5, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	featured, err := repo.Featured(ctx, 4)
	require.NoError(t, err)
	require.Len(t, featured, 4)
	assert.True(t, featured[0].CreatedAt.After(featured[1].CreatedAt))
	for _, p := range featured {
		assert.True(t, p.Featured)
	}
}

func TestPropertyRepositoryComparablesUnsupported(t *testing.T) {
	repo := NewPropertyRepository(NewMemoryStore())
	_, err := repo.Comparables(context.Background(), "x", 3)
	assert.ErrorIs(t, err, ErrVectorsUnsupported)
}

func TestPropertyRepositorySkipsUndecodableDocuments(t *testing.T) {
	store := NewMemoryStore()
	repo := NewPropertyRepository(store)
	ctx := context.Background()

	_, err := store.Insert(ctx, CollectionProperties, map[string]any{
		"title": "Legacy office",
		"type":  "office_rent",
		"propertyDetails": map[string]any{
			"building_grade":             3,
			"furnishing_fully_furnished": true,
			"furnishing_unfurnished":     false,
		},
	})
	require.NoError(t, err)
	_, err = store.Insert(ctx, CollectionProperties, map[string]any{"title": "Broken", "price": "a lot"})
	require.NoError(t, err)

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Legacy office", all[0].Title)
	require.NotNil(t, all[0].PropertyDetails)
	assert.Equal(t, model.Grade("3"), all[0].PropertyDetails.BuildingGrade)
	assert.Equal(t, model.FurnishingFully, all[0].PropertyDetails.Furnishing)
}
