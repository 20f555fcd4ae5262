package service

import (
	"fmt"
	"sort"

	"spacemarket/internal/model"
	"spacemarket/internal/utils"
)

var amenityMatcher = newAmenityMatcher()

func newAmenityMatcher() *utils.AmenityMatcher {
	ids := make([]string, 0, len(model.Amenities))
	labels := make([]string, 0, len(model.Amenities))
	for _, a := range model.Amenities {
		ids = append(ids, a.ID)
		labels = append(labels, a.Label)
	}
	return utils.NewAmenityMatcher(ids, labels)
}

// formValues is a form state with normalized keys
type formValues map[string]any

func normalizeForm(state model.FormState) formValues {
	// sorted so that colliding spellings resolve the same way every time
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(formValues, len(state))
	for _, k := range keys {
		values[utils.NormalizeKey(k)] = state[k]
	}
	return values
}

func (v formValues) first(keys ...string) any {
	for _, k := range keys {
		if val, ok := v[k]; ok {
			return val
		}
	}
	return nil
}

func (v formValues) number(keys ...string) float64 { return utils.ToFloat(v.first(keys...)) }

func (v formValues) flag(keys ...string) bool { return utils.ToBool(v.first(keys...)) }

func (v formValues) text(keys ...string) string { return utils.ToString(v.first(keys...)) }

// DecodeAttributes coerces raw form state into the attribute struct of its
// property family. Unset or unparseable numbers become 0.
func DecodeAttributes(state model.FormState) (model.PropertyAttributes, error) {
	values := normalizeForm(state)
	propertyType := values.text("propertytype", "property_type", "type")

	family, ok := model.FamilyOf(propertyType)
	if !ok {
		return nil, &model.ValidationError{Field: "propertyType", Message: "Please select property type and city"}
	}

	switch family {
	case model.FamilyCoworking:
		common := decodeCommon(propertyType, values)
		buildingType, err := decodeChoice(values, "building_type", map[string]string{
			"building_type_business_park":                model.BuildingBusinessPark,
			"building_type_independent_commercial_tower": model.BuildingIndependentCommercialTower,
		})
		if err != nil {
			return nil, err
		}
		return &model.CoworkingAttributes{
			CommonAttributes: common,
			TotalCenterArea:  values.number("total_center_area"),
			SeatingCapacity:  values.number("total_seating_capacity", "seating_capacity"),
			FloorplateArea:   values.number("typical_floorplate_area"),
			BuildingType:     buildingType,
		}, nil

	case model.FamilyOfficeRent:
		common := decodeCommon(propertyType, values)
		buildingType, err := decodeChoice(values, "building_type", map[string]string{
			"building_type_business_tower":                      model.BuildingBusinessTower,
			"building_type_it_ites":                             model.BuildingITITeS,
			"building_type_independent_commercial_tower":        model.BuildingIndependentCommercialTower,
			"building_type_independent_commercial_tower_office": model.BuildingIndependentCommercialTower,
		})
		if err != nil {
			return nil, err
		}
		furnishing, err := decodeChoice(values, "furnishing", map[string]string{
			"furnishing_fully_furnished": string(model.FurnishingFully),
			"furnishing_unfurnished":     string(model.FurnishingNot),
		})
		if err != nil {
			return nil, err
		}
		return &model.OfficeRentAttributes{
			CommonAttributes: common,
			FloorSize:        values.number("floor_size"),
			LockIn:           values.number("lock_in"),
			Floors:           values.number("floors"),
			BuildingGrade:    values.text("building_grade"),
			YearBuilt:        values.number("year_built"),
			Furnishing:       model.Furnishing(furnishing),
			BuildingType:     buildingType,
		}, nil

	default:
		return &model.GenericAttributes{
			Type:      propertyType,
			Bedrooms:  values.number("bedrooms"),
			Bathrooms: values.number("bathrooms"),
			Area:      values.number("area"),
			Location:  values.text("location"),
			Address:   values.text("address"),
		}, nil
	}
}

func decodeCommon(propertyType string, values formValues) model.CommonAttributes {
	return model.CommonAttributes{
		Type:                propertyType,
		City:                utils.NormalizeKey(values.text("city")),
		TotalWeeklyHours:    values.number("total_weekly_hours"),
		DaysOpenPerWeek:     values.number("days_open_per_week"),
		HasDifferentTimings: values.flag("has_different_timings"),
		WeekdayOpeningTime:  values.text("weekday_opening_time"),
		WeekdayClosingTime:  values.text("weekday_closing_time"),
		NearestMetro:        values.number("nearest_metro_distance"),
		NearestBus:          values.number("nearest_bus_distance"),
		NearestTrain:        values.number("nearest_train_distance"),
		NearestAirport:      values.number("nearest_airport_distance"),
		NearestHospital:     values.number("nearest_hospital_distance"),
		Amenities:           decodeAmenities(values),
	}
}

// decodeAmenities collects amenity flags given either as top-level keys or
// inside an "amenities" object or list.
func decodeAmenities(values formValues) map[string]bool {
	amenities := make(map[string]bool, len(model.Amenities))
	for _, a := range model.Amenities {
		amenities[a.ID] = false
	}

	set := func(key string, on any) {
		if id, ok := amenityMatcher.Resolve(key); ok {
			amenities[id] = amenities[id] || utils.ToBool(on)
		}
	}

	for k, v := range values {
		if k == "amenities" {
			continue
		}
		set(k, v)
	}
	switch nested := values["amenities"].(type) {
	case map[string]any:
		for k, v := range nested {
			set(k, v)
		}
	case []any:
		for _, item := range nested {
			set(utils.ToString(item), true)
		}
	case []string:
		for _, item := range nested {
			set(item, true)
		}
	}
	return amenities
}

var choiceAliases = map[string]string{
	"furnished":     string(model.FurnishingFully),
	"not_furnished": string(model.FurnishingNot),
}

// decodeChoice reads a mutually exclusive choice given as an enum field or as
// legacy one-hot flags. More than one distinct selection is a ValidationError.
func decodeChoice(values formValues, field string, flags map[string]string) (string, error) {
	selected := map[string]bool{}
	if v := utils.NormalizeKey(values.text(field)); v != "" {
		if alias, ok := choiceAliases[v]; ok {
			v = alias
		}
		known := false
		for _, choice := range flags {
			known = known || choice == v
		}
		if !known {
			return "", &model.ValidationError{Field: field, Message: fmt.Sprintf("unknown %s %q", field, v)}
		}
		selected[v] = true
	}
	for key, choice := range flags {
		if values.flag(key) {
			selected[choice] = true
		}
	}
	if len(selected) > 1 {
		return "", &model.ValidationError{Field: field, Message: fmt.Sprintf("only one %s may be selected", field)}
	}
	for choice := range selected {
		return choice, nil
	}
	return "", nil
}
