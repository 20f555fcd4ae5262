package model

import "strings"

// Family groups property types that share a price model
type Family string

const (
	FamilyCoworking  Family = "coworking"
	FamilyOfficeRent Family = "office_rent"
	FamilyGeneric    Family = "generic"
)

// FamilyOf classifies a property type. Empty types have no family.
func FamilyOf(propertyType string) (Family, bool) {
	t := strings.TrimSpace(propertyType)
	switch {
	case t == "":
		return "", false
	case t == TypeCoworkingDedicatedDesk, t == TypeCoworkingPrivateCabin, t == TypeCoworkingManagedOffice:
		return FamilyCoworking, true
	case t == TypeOfficeRent:
		return FamilyOfficeRent, true
	default:
		return FamilyGeneric, true
	}
}

// Furnishing is the mutually exclusive furnishing state of an office
type Furnishing string

const (
	FurnishingNone  Furnishing = ""
	FurnishingFully Furnishing = "fully_furnished"
	FurnishingNot   Furnishing = "unfurnished"
)

// Building types per family
const (
	BuildingBusinessPark               = "business_park"
	BuildingIndependentCommercialTower = "independent_commercial_tower"
	BuildingBusinessTower              = "business_tower"
	BuildingITITeS                     = "it_ites"
)

// Cities is the fixed list used for one-hot city encoding
var Cities = []string{
	"noida", "new_delhi", "gurgaon", "bangalore", "ahmedabad",
	"chennai", "hyderabad", "mumbai", "pune", "kolkata",
}

// Amenity describes one boolean amenity flag of the listing form
type Amenity struct {
	ID    string
	Label string
}

// Amenities is the fixed amenity list; every payload carries all of them
var Amenities = []Amenity{
	{"2_wheeler_parking", "2 Wheeler Parking"},
	{"4_wheeler_parking", "4 Wheeler Parking"},
	{"air_conditioners", "Air Conditioners"},
	{"air_filters", "Air Filters"},
	{"breakout_recreational_area", "Breakout & Recreational Area"},
	{"bus", "Bus Connectivity"},
	{"cafeteria", "Cafeteria"},
	{"chairs_desks", "Chairs & Desks"},
	{"charging", "Charging Points"},
	{"coffee", "Coffee"},
	{"conference_room", "Conference Room"},
	{"event_space", "Event Space"},
	{"fire_extinguisher", "Fire Extinguisher"},
	{"first_aid_kit", "First Aid Kit"},
	{"fitness_centre", "Fitness Centre"},
	{"indoor_plants", "Indoor Plants"},
	{"lan", "LAN"},
	{"library", "Library"},
	{"lift", "Lift"},
	{"lounge_area", "Lounge Area"},
	{"lunch", "Lunch Service"},
	{"meeting_rooms", "Meeting Rooms"},
	{"metro_connectivity", "Metro Connectivity"},
	{"nearby_eateries", "Nearby Eateries"},
	{"outdoor_seating", "Outdoor Seating"},
	{"pantry_area", "Pantry Area"},
	{"pet_friendly", "Pet Friendly"},
	{"phone_booth", "Phone Booth"},
	{"power_backup", "Power Backup"},
	{"printer", "Printer"},
	{"rental_cycles_evs", "Rental Cycles/EVs"},
	{"security_personnel", "Security Personnel"},
	{"separate_washroom", "Separate Washroom"},
	{"shuttle", "Shuttle Service"},
	{"single_washroom", "Single Washroom"},
	{"smoke_alarms", "Smoke Alarms"},
	{"snacks_drinks", "Snacks & Drinks"},
	{"stationery", "Stationery"},
	{"storage_space", "Storage Space"},
	{"tea", "Tea"},
	{"training_room", "Training Room"},
	{"washroom_near_premise", "Washroom Near Premise"},
	{"water", "Water"},
	{"wellness_centre", "Wellness Centre"},
	{"wifi", "WiFi"},
}

// FormState is the raw, loosely typed listing form as sent by clients
type FormState map[string]any

// PropertyAttributes is implemented by exactly one attribute struct per family
type PropertyAttributes interface {
	Family() Family
	PropertyType() string
}

// CommonAttributes are shared by the coworking and office rent families
type CommonAttributes struct {
	Type                string
	City                string
	TotalWeeklyHours    float64
	DaysOpenPerWeek     float64
	HasDifferentTimings bool
	WeekdayOpeningTime  string
	WeekdayClosingTime  string
	NearestMetro        float64
	NearestBus          float64
	NearestTrain        float64
	NearestAirport      float64
	NearestHospital     float64
	Amenities           map[string]bool
}

// CoworkingAttributes are the form attributes of coworking listings
type CoworkingAttributes struct {
	CommonAttributes
	TotalCenterArea float64
	SeatingCapacity float64
	FloorplateArea  float64
	BuildingType    string
}

// OfficeRentAttributes are the form attributes of office rent listings
type OfficeRentAttributes struct {
	CommonAttributes
	FloorSize     float64
	LockIn        float64
	Floors        float64
	BuildingGrade string
	YearBuilt     float64
	Furnishing    Furnishing
	BuildingType  string
}

// GenericAttributes are the form attributes of residential and other listings
type GenericAttributes struct {
	Type      string
	Bedrooms  float64
	Bathrooms float64
	Area      float64
	Location  string
	Address   string
}

func (a *CoworkingAttributes) Family() Family        { return FamilyCoworking }
func (a *CoworkingAttributes) PropertyType() string  { return a.Type }
func (a *OfficeRentAttributes) Family() Family       { return FamilyOfficeRent }
func (a *OfficeRentAttributes) PropertyType() string { return a.Type }
func (a *GenericAttributes) Family() Family          { return FamilyGeneric }
func (a *GenericAttributes) PropertyType() string    { return a.Type }

// Prediction is a normalized price estimate
type Prediction struct {
	Price            float64           `json:"predicted_price"`
	LocationFeatures *LocationFeatures `json:"location_features,omitempty"`
}

// PredictOutcome reports the result of a guarded prediction or submission
type PredictOutcome struct {
	Skipped          bool              `json:"skipped"`
	PredictedPrice   float64           `json:"predicted_price,omitempty"`
	LocationFeatures *LocationFeatures `json:"location_features,omitempty"`
	PropertyID       string            `json:"property_id,omitempty"`
}
