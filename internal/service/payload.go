package service

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spacemarket/internal/config"
	"spacemarket/internal/model"
	"spacemarket/internal/utils"
)

// Payload is the flat key-value request body expected by the price model
type Payload map[string]any

// legacyDisplayKeys are display spellings the title-cased label does not produce
var legacyDisplayKeys = map[string]string{
	"2_wheeler_parking": "2 wheeler parking",
	"4_wheeler_parking": "4 wheeler parking",
}

// BuildPayload shapes attributes into the request body of the family's price
// model. Every flag is encoded as 0 or 1, every amenity is present and only
// the active family's fields are included.
func BuildPayload(attrs model.PropertyAttributes, profile config.PredictionProfile) (Payload, error) {
	if err := validateAttributes(attrs); err != nil {
		return nil, err
	}

	p := Payload{}
	switch a := attrs.(type) {
	case *model.CoworkingAttributes:
		p.addCommon(a.CommonAttributes, profile)
		p["total_center_area"] = a.TotalCenterArea
		p["total_seating_capacity"] = a.SeatingCapacity
		p["typical_floorplate_area"] = a.FloorplateArea
		p["building_type_business_park"] = oneHot(a.BuildingType, model.BuildingBusinessPark)
		p["building_type_independent_commercial_tower"] = oneHot(a.BuildingType, model.BuildingIndependentCommercialTower)

	case *model.OfficeRentAttributes:
		p.addCommon(a.CommonAttributes, profile)
		p["floor_size"] = a.FloorSize
		p["lock_in"] = a.LockIn
		p["floors"] = a.Floors
		p["building_grade"] = utils.ToFloat(a.BuildingGrade)
		p["year_built"] = a.YearBuilt
		p["air_conditioning"] = utils.BoolToInt(a.Amenities["air_conditioners"])
		p["furnishing_Fully_Furnished"] = oneHot(string(a.Furnishing), string(model.FurnishingFully))
		p["furnishing_Unfurnished"] = oneHot(string(a.Furnishing), string(model.FurnishingNot))
		p["building_type_Business_Tower"] = oneHot(a.BuildingType, model.BuildingBusinessTower)
		p["building_type_IT/ITeS"] = oneHot(a.BuildingType, model.BuildingITITeS)
		p["building_type_Independent_Commercial_Tower"] = oneHot(a.BuildingType, model.BuildingIndependentCommercialTower)

	case *model.GenericAttributes:
		p["property_type"] = a.Type
		p["bedrooms"] = a.Bedrooms
		p["bathrooms"] = a.Bathrooms
		p["area"] = a.Area
		p["location"] = a.Location
		p["address"] = a.Address
	}

	if profile.Envelope == config.EnvelopeData {
		return Payload{"data": map[string]any(p), "image": nil}, nil
	}
	return p, nil
}

func validateAttributes(attrs model.PropertyAttributes) error {
	missing := &model.ValidationError{Field: "city", Message: "Please select property type and city"}
	switch a := attrs.(type) {
	case nil:
		return &model.ValidationError{Field: "propertyType", Message: "Please select property type and city"}
	case *model.CoworkingAttributes:
		if !knownCity(a.City) {
			return missing
		}
	case *model.OfficeRentAttributes:
		if !knownCity(a.City) {
			return missing
		}
	case *model.GenericAttributes:
		if strings.TrimSpace(a.Location) == "" {
			return &model.ValidationError{Field: "location", Message: "Please select property type and location"}
		}
	}
	if strings.TrimSpace(attrs.PropertyType()) == "" {
		return &model.ValidationError{Field: "propertyType", Message: "Please select property type and city"}
	}
	return nil
}

func knownCity(city string) bool {
	for _, c := range model.Cities {
		if c == city {
			return true
		}
	}
	return false
}

func (p Payload) addCommon(c model.CommonAttributes, profile config.PredictionProfile) {
	p["city"] = c.City
	p["total_weekly_hours"] = c.TotalWeeklyHours
	p["days_open_per_week"] = c.DaysOpenPerWeek
	p["has_different_timings"] = utils.BoolToInt(c.HasDifferentTimings)
	p["weekday_opening_time"] = c.WeekdayOpeningTime
	p["weekday_closing_time"] = c.WeekdayClosingTime
	p["nearest_metro_distance"] = c.NearestMetro
	p["nearest_bus_distance"] = c.NearestBus
	p["nearest_train_distance"] = c.NearestTrain
	p["nearest_airport_distance"] = c.NearestAirport
	p["nearest_hospital_distance"] = c.NearestHospital

	for _, city := range model.Cities {
		p["city_"+city] = oneHot(c.City, city)
	}

	title := cases.Title(language.English)
	for _, a := range model.Amenities {
		p[amenityKey(a.ID, profile, title)] = utils.BoolToInt(c.Amenities[a.ID])
	}
}

// amenityKey returns the wire key of an amenity. Profile overrides win over
// the key style.
func amenityKey(id string, profile config.PredictionProfile, title cases.Caser) string {
	if key, ok := profile.Overrides[id]; ok {
		return key
	}
	if profile.KeyStyle != config.KeyStyleDisplay {
		return id
	}
	if key, ok := legacyDisplayKeys[id]; ok {
		return key
	}
	return title.String(strings.ReplaceAll(id, "_", " "))
}

func oneHot(value, want string) int {
	return utils.BoolToInt(value == want)
}

// FeatureVector encodes the numeric part of a listing's snake_case payload in
// key order. Vectors of the same family always have the same length.
func FeatureVector(attrs model.PropertyAttributes) ([]float32, error) {
	p, err := BuildPayload(attrs, config.PredictionProfile{KeyStyle: config.KeyStyleSnake, Envelope: config.EnvelopeFlat})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(p))
	for k, v := range p {
		switch v.(type) {
		case int, float64:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	vec := make([]float32, 0, len(keys))
	for _, k := range keys {
		vec = append(vec, float32(utils.ToFloat(p[k])))
	}
	return vec, nil
}
