package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeMatches(t *testing.T) {
	tests := []struct {
		grade Grade
		want  string
		match bool
	}{
		{"3", "3", true},
		{"3", "3.0", true},
		{"3.5", "3", true},
		{"4", "3", false},
		{"A", "a", true},
		{"A", "B", false},
		{"", "3", false},
		{"3", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.match, tt.grade.Matches(tt.want), "%q matches %q", tt.grade, tt.want)
	}
}

func TestPropertyDetailsDecodesOlderRecords(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		grade      Grade
		furnishing Furnishing
	}{
		{"numeric grade", `{"building_grade": 2}`, "2", FurnishingNone},
		{"string grade", `{"building_grade": "A+"}`, "A+", FurnishingNone},
		{"fully furnished flag", `{"furnishing_fully_furnished": true, "furnishing_unfurnished": false}`, "", FurnishingFully},
		{"unfurnished flag as number", `{"furnishing_unfurnished": 1}`, "", FurnishingNot},
		{"field wins over flags", `{"furnishing": "unfurnished", "furnishing_fully_furnished": true}`, "", FurnishingNot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d PropertyDetails
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &d))
			assert.Equal(t, tt.grade, d.BuildingGrade)
			assert.Equal(t, tt.furnishing, d.Furnishing)
		})
	}

	var d PropertyDetails
	assert.Error(t, json.Unmarshal([]byte(`{"building_grade": true}`), &d))
}

func TestDeriveLocationKeys(t *testing.T) {
	p := Property{Location: " Baner ", PropertyDetails: &PropertyDetails{City: "Pune"}}
	p.LocationKeys = p.DeriveLocationKeys()
	assert.Equal(t, []string{"baner", "pune"}, p.LocationKeys)
	assert.True(t, p.HasLocationKey("pune"))
	assert.False(t, p.HasLocationKey("Pune"))
}
