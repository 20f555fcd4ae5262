package utils

import (
	"strings"
	"unicode"
)

// NormalizeKey folds a form key or label into snake_case:
// "Chairs & Desks" -> "chairs_desks", "Rental Cycles/EVs" -> "rental_cycles_evs".
func NormalizeKey(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// amenityAliases maps label spellings that do not fold onto their id
var amenityAliases = map[string]string{
	"bus_connectivity":               "bus",
	"charging_points":                "charging",
	"lunch_service":                  "lunch",
	"shuttle_service":                "shuttle",
	"wi_fi":                          "wifi",
	"ac":                             "air_conditioners",
	"air_conditioning":               "air_conditioners",
	"two_wheeler_parking":            "2_wheeler_parking",
	"four_wheeler_parking":           "4_wheeler_parking",
	"fitness_center":                 "fitness_centre",
	"wellness_center":                "wellness_centre",
	"breakout_and_recreational_area": "breakout_recreational_area",
}

// AmenityMatcher resolves form keys onto a fixed list of amenity ids
type AmenityMatcher struct {
	ids map[string]string
}

// NewAmenityMatcher indexes ids together with their labels
func NewAmenityMatcher(ids, labels []string) *AmenityMatcher {
	m := &AmenityMatcher{ids: make(map[string]string, len(ids)*2)}
	for i, id := range ids {
		m.ids[NormalizeKey(id)] = id
		if i < len(labels) {
			m.ids[NormalizeKey(labels[i])] = id
		}
	}
	return m
}

// Resolve returns the amenity id for a snake_case, display or label key
func (m *AmenityMatcher) Resolve(key string) (string, bool) {
	k := NormalizeKey(key)
	if id, ok := m.ids[k]; ok {
		return id, true
	}
	if alias, ok := amenityAliases[k]; ok {
		if id, ok := m.ids[alias]; ok {
			return id, true
		}
	}
	return "", false
}

// ContainsFold reports whether sub occurs in s, ignoring case
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
