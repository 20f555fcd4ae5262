package model

// SortKey selects the ordering of a property query
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortSizeAsc   SortKey = "size-asc"
	SortSizeDesc  SortKey = "size-desc"
)

// FilterCriteria is the loosely typed filter state of a property search.
// Every field accepts "", "any" or "all" as no constraint; numeric fields
// also treat "0" that way.
type FilterCriteria struct {
	Type            string `json:"type,omitempty" form:"type"`
	MinPrice        string `json:"minPrice,omitempty" form:"minPrice"`
	MaxPrice        string `json:"maxPrice,omitempty" form:"maxPrice"`
	Bedrooms        string `json:"bedrooms,omitempty" form:"bedrooms"`
	Bathrooms       string `json:"bathrooms,omitempty" form:"bathrooms"`
	Location        string `json:"location,omitempty" form:"location"`
	SearchTerm      string `json:"searchTerm,omitempty" form:"q"`
	UserID          string `json:"userId,omitempty" form:"userId"`
	SeatingCapacity string `json:"seatingCapacity,omitempty" form:"seatingCapacity"`
	CenterArea      string `json:"centerArea,omitempty" form:"centerArea"`
	WeeklyHours     string `json:"weeklyHours,omitempty" form:"weeklyHours"`
	FloorSize       string `json:"floorSize,omitempty" form:"floorSize"`
	BuildingGrade   string `json:"buildingGrade,omitempty" form:"buildingGrade"`
	Furnishing      string `json:"furnishing,omitempty" form:"furnishing"`
	Sort            string `json:"sort,omitempty" form:"sort"`
}

// PropertyListResponse is returned by the property search endpoint
type PropertyListResponse struct {
	Results []Property `json:"results"`
	Total   int        `json:"total"`
	Route   string     `json:"route"`
	Took    int64      `json:"took_ms"`
}
