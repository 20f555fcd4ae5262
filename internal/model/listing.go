package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Property type values used across the marketplace
const (
	TypeCoworkingDedicatedDesk = "coworking_dedicated_desk"
	TypeCoworkingPrivateCabin  = "coworking_private_cabin"
	TypeCoworkingManagedOffice = "coworking_managed_office"
	TypeOfficeRent             = "office_rent"
)

// Property represents a listed property document
type Property struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Location         string            `json:"location"`
	LocationKeys     []string          `json:"locationKeys,omitempty"`
	Address          string            `json:"address,omitempty"`
	Price            float64           `json:"price"`
	PredictedPrice   *float64          `json:"predictedPrice,omitempty"`
	Bedrooms         int               `json:"bedrooms"`
	Bathrooms        int               `json:"bathrooms"`
	Area             float64           `json:"area"`
	Type             string            `json:"type"`
	Status           string            `json:"status,omitempty"`
	Featured         bool              `json:"featured"`
	Image            string            `json:"image,omitempty"`
	Images           []string          `json:"images,omitempty"`
	UserID           string            `json:"userId"`
	LocationFeatures *LocationFeatures `json:"locationFeatures,omitempty"`
	PropertyDetails  *PropertyDetails  `json:"propertyDetails,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        *time.Time        `json:"updatedAt,omitempty"`
}

// PropertyDetails holds the family-specific attributes captured by the listing form.
// Numeric fields are pointers so that "not provided" survives a round trip.
type PropertyDetails struct {
	City                string          `json:"city,omitempty"`
	TotalWeeklyHours    *float64        `json:"total_weekly_hours,omitempty"`
	DaysOpenPerWeek     *float64        `json:"days_open_per_week,omitempty"`
	HasDifferentTimings bool            `json:"has_different_timings,omitempty"`
	WeekdayOpeningTime  string          `json:"weekday_opening_time,omitempty"`
	WeekdayClosingTime  string          `json:"weekday_closing_time,omitempty"`
	NearestMetro        *float64        `json:"nearest_metro_distance,omitempty"`
	NearestBus          *float64        `json:"nearest_bus_distance,omitempty"`
	NearestTrain        *float64        `json:"nearest_train_distance,omitempty"`
	NearestAirport      *float64        `json:"nearest_airport_distance,omitempty"`
	NearestHospital     *float64        `json:"nearest_hospital_distance,omitempty"`
	TotalCenterArea     *float64        `json:"total_center_area,omitempty"`
	SeatingCapacity     *float64        `json:"total_seating_capacity,omitempty"`
	FloorplateArea      *float64        `json:"typical_floorplate_area,omitempty"`
	FloorSize           *float64        `json:"floor_size,omitempty"`
	LockIn              *float64        `json:"lock_in,omitempty"`
	Floors              *float64        `json:"floors,omitempty"`
	BuildingGrade       Grade           `json:"building_grade,omitempty"`
	YearBuilt           *float64        `json:"year_built,omitempty"`
	Furnishing          Furnishing      `json:"furnishing,omitempty"`
	BuildingType        string          `json:"building_type,omitempty"`
	ContactNumber       string          `json:"contact_number,omitempty"`
	Email               string          `json:"email,omitempty"`
	Amenities           map[string]bool `json:"amenities,omitempty"`
}

// UnmarshalJSON also reads the furnishing_fully_furnished and
// furnishing_unfurnished flags of older listings.
func (d *PropertyDetails) UnmarshalJSON(b []byte) error {
	type details PropertyDetails
	aux := struct {
		*details
		FullyFurnished json.RawMessage `json:"furnishing_fully_furnished"`
		Unfurnished    json.RawMessage `json:"furnishing_unfurnished"`
	}{details: (*details)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if d.Furnishing == FurnishingNone {
		switch {
		case truthy(aux.FullyFurnished):
			d.Furnishing = FurnishingFully
		case truthy(aux.Unfurnished):
			d.Furnishing = FurnishingNot
		}
	}
	return nil
}

func truthy(raw json.RawMessage) bool {
	switch strings.Trim(strings.TrimSpace(string(raw)), `"`) {
	case "true", "1":
		return true
	}
	return false
}

// Grade is a building grade. Older listings store it as a number.
type Grade string

// UnmarshalJSON accepts a string or a number
func (g *Grade) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*g = ""
	case string:
		*g = Grade(strings.TrimSpace(x))
	case float64:
		*g = Grade(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return fmt.Errorf("building grade must be a string or number, got %s", b)
	}
	return nil
}

// Matches compares the integer part when both grades are numeric, otherwise
// the grades case-insensitively.
func (g Grade) Matches(want string) bool {
	have := strings.TrimSpace(string(g))
	want = strings.TrimSpace(want)
	if have == "" || want == "" {
		return false
	}
	a, errA := strconv.ParseFloat(have, 64)
	b, errB := strconv.ParseFloat(want, 64)
	if errA == nil && errB == nil {
		return math.Trunc(a) == math.Trunc(b)
	}
	return strings.EqualFold(have, want)
}

// LocationFeatures is the neighbourhood summary returned by the generic price model
type LocationFeatures struct {
	Hospitals     int `json:"hospitals"`
	Schools       int `json:"schools"`
	MetroStations int `json:"metro_stations"`
}

// Size returns the comparable size of a property for sorting: the area for
// generic listings, otherwise the center area or floor size of the details.
func (p *Property) Size() float64 {
	if p.Area > 0 {
		return p.Area
	}
	if d := p.PropertyDetails; d != nil {
		if d.TotalCenterArea != nil {
			return *d.TotalCenterArea
		}
		if d.FloorSize != nil {
			return *d.FloorSize
		}
	}
	return 0
}

// NormalizeLocation lower-cases and trims a location for exact matching
func NormalizeLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DeriveLocationKeys computes the stored location keys: the normalized
// location and the normalized details city, without duplicates.
func (p *Property) DeriveLocationKeys() []string {
	var keys []string
	add := func(s string) {
		key := NormalizeLocation(s)
		if key == "" {
			return
		}
		for _, k := range keys {
			if k == key {
				return
			}
		}
		keys = append(keys, key)
	}
	add(p.Location)
	if p.PropertyDetails != nil {
		add(p.PropertyDetails.City)
	}
	return keys
}

// HasLocationKey reports whether key is one of the stored location keys
func (p *Property) HasLocationKey(key string) bool {
	for _, k := range p.LocationKeys {
		if k == key {
			return true
		}
	}
	return false
}

// PropertyUpdate carries the owner-editable fields of a property
type PropertyUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Status      *string  `json:"status,omitempty" binding:"omitempty,oneof=active inactive sold rented"`
	Featured    *bool    `json:"featured,omitempty"`
}

// SubmitListingRequest carries the listing fields entered next to the
// priced form. A zero price lists the property at its predicted price.
type SubmitListingRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"omitempty,gte=0"`
	Location      string  `json:"location"`
	Address       string  `json:"address"`
	ContactNumber string  `json:"contact_number"`
	Email         string  `json:"email" binding:"omitempty,email"`
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
