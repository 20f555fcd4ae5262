package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
	"spacemarket/internal/utils"
)

// PushdownPolicy decides which constraints the planner hands to the store
type PushdownPolicy string

const (
	// PushdownConditional pushes equalities only when no price range is present
	PushdownConditional PushdownPolicy = "conditional"
	// PushdownNever fetches everything and filters in memory
	PushdownNever PushdownPolicy = "never"
	// PushdownAlways pushes equalities whenever present; price is then filtered in memory
	PushdownAlways PushdownPolicy = "always"
)

// Route names the store primitive a plan uses
type Route string

const (
	RouteFetchAll   Route = "fetch_all"
	RouteFetchWhere Route = "fetch_where"
	RouteFetchRange Route = "fetch_range"
)

// Predicate is one named in-memory filter step
type Predicate struct {
	Name  string
	Match func(p *model.Property) bool
}

// QueryPlan is the outcome of planning a filter: what the store evaluates,
// what is evaluated in memory afterwards, and the final ordering.
type QueryPlan struct {
	Route      Route
	Equalities []repository.Equality
	Ranges     []repository.Range
	Predicates []Predicate
	Sort       model.SortKey
}

// PredicateNames lists the in-memory steps in evaluation order
func (qp *QueryPlan) PredicateNames() []string {
	names := make([]string, 0, len(qp.Predicates))
	for _, p := range qp.Predicates {
		names = append(names, p.Name)
	}
	return names
}

// QueryResult carries the filtered, ordered properties and the plan used
type QueryResult struct {
	Properties []model.Property
	Plan       *QueryPlan
}

// Planner turns filter criteria into store calls plus in-memory filtering
type Planner struct {
	properties *repository.PropertyRepository
	policy     PushdownPolicy
	logger     *slog.Logger
}

// NewPlanner creates a planner over the property repository
func NewPlanner(properties *repository.PropertyRepository, policy PushdownPolicy, logger *slog.Logger) *Planner {
	if policy == "" {
		policy = PushdownConditional
	}
	return &Planner{properties: properties, policy: policy, logger: logger}
}

// parsedCriteria holds the criteria after sentinel removal and parsing
type parsedCriteria struct {
	propertyType  string
	location      string
	userID        string
	minPrice      *float64
	maxPrice      *float64
	bedrooms      *float64
	bathrooms     *float64
	searchTerm    string
	seating       *float64
	centerArea    *float64
	weeklyHours   *float64
	floorSize     *float64
	buildingGrade string
	furnishing    model.Furnishing
	sort          model.SortKey
}

func optionalNumber(field, value string) (*float64, error) {
	f, ok, err := utils.ParseFilterNumber(value)
	if err != nil {
		return nil, &model.ValidationError{Field: field, Message: err.Error()}
	}
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func optionalString(value string) string {
	if utils.IsSentinel(value) {
		return ""
	}
	return strings.TrimSpace(value)
}

func parseSortKey(value string) (model.SortKey, error) {
	if utils.IsSentinel(value) {
		return model.SortNewest, nil
	}
	switch key := model.SortKey(strings.ToLower(strings.TrimSpace(value))); key {
	case model.SortNewest, model.SortPriceAsc, model.SortPriceDesc, model.SortSizeAsc, model.SortSizeDesc:
		return key, nil
	}
	return "", &model.ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort %q", value)}
}

func parseFurnishing(value string) (model.Furnishing, error) {
	switch utils.NormalizeKey(optionalString(value)) {
	case "":
		return model.FurnishingNone, nil
	case "furnished", "fully_furnished":
		return model.FurnishingFully, nil
	case "unfurnished":
		return model.FurnishingNot, nil
	}
	return "", &model.ValidationError{Field: "furnishing", Message: fmt.Sprintf("unknown furnishing %q", value)}
}

func parseCriteria(c model.FilterCriteria) (*parsedCriteria, error) {
	pc := &parsedCriteria{
		propertyType:  optionalString(c.Type),
		location:      model.NormalizeLocation(optionalString(c.Location)),
		userID:        optionalString(c.UserID),
		searchTerm:    optionalString(c.SearchTerm),
		buildingGrade: optionalString(c.BuildingGrade),
	}

	numbers := []struct {
		field string
		value string
		dst   **float64
	}{
		{"minPrice", c.MinPrice, &pc.minPrice},
		{"maxPrice", c.MaxPrice, &pc.maxPrice},
		{"bedrooms", c.Bedrooms, &pc.bedrooms},
		{"bathrooms", c.Bathrooms, &pc.bathrooms},
		{"seatingCapacity", c.SeatingCapacity, &pc.seating},
		{"centerArea", c.CenterArea, &pc.centerArea},
		{"weeklyHours", c.WeeklyHours, &pc.weeklyHours},
		{"floorSize", c.FloorSize, &pc.floorSize},
	}
	for _, n := range numbers {
		v, err := optionalNumber(n.field, n.value)
		if err != nil {
			return nil, err
		}
		*n.dst = v
	}

	var err error
	if pc.furnishing, err = parseFurnishing(c.Furnishing); err != nil {
		return nil, err
	}
	if pc.sort, err = parseSortKey(c.Sort); err != nil {
		return nil, err
	}
	return pc, nil
}

// Plan decides the route and the in-memory steps for criteria. It has no
// side effects.
func (pl *Planner) Plan(c model.FilterCriteria) (*QueryPlan, error) {
	pc, err := parseCriteria(c)
	if err != nil {
		return nil, err
	}

	plan := &QueryPlan{Route: RouteFetchAll, Sort: pc.sort}
	hasRange := pc.minPrice != nil || pc.maxPrice != nil

	var equalities []repository.Equality
	if pc.propertyType != "" {
		equalities = append(equalities, repository.Equality{Field: "type", Value: pc.propertyType})
	}
	if pc.location != "" {
		equalities = append(equalities, repository.Equality{Field: "locationKeys", Value: pc.location, Contains: true})
	}
	if pc.userID != "" {
		equalities = append(equalities, repository.Equality{Field: "userId", Value: pc.userID})
	}

	pushEqualities := false
	pushRange := false
	switch pl.policy {
	case PushdownConditional:
		pushRange = hasRange
		pushEqualities = !hasRange && len(equalities) > 0
	case PushdownAlways:
		pushEqualities = len(equalities) > 0
		pushRange = hasRange && !pushEqualities
	}

	switch {
	case pushEqualities:
		plan.Route = RouteFetchWhere
		plan.Equalities = equalities
	case pushRange:
		plan.Route = RouteFetchRange
		if pc.minPrice != nil {
			plan.Ranges = append(plan.Ranges, repository.Range{Field: "price", Op: repository.OpGTE, Value: *pc.minPrice})
		}
		if pc.maxPrice != nil {
			plan.Ranges = append(plan.Ranges, repository.Range{Field: "price", Op: repository.OpLTE, Value: *pc.maxPrice})
		}
	}

	if !pushEqualities {
		plan.Predicates = append(plan.Predicates, equalityPredicates(pc)...)
	}
	if hasRange && !pushRange {
		plan.Predicates = append(plan.Predicates, pricePredicate(pc.minPrice, pc.maxPrice))
	}
	plan.Predicates = append(plan.Predicates, attributePredicates(pc)...)

	return plan, nil
}

func equalityPredicates(pc *parsedCriteria) []Predicate {
	var preds []Predicate
	if t := pc.propertyType; t != "" {
		preds = append(preds, Predicate{Name: "type", Match: func(p *model.Property) bool {
			return p.Type == t
		}})
	}
	if loc := pc.location; loc != "" {
		preds = append(preds, Predicate{Name: "location", Match: func(p *model.Property) bool {
			return p.HasLocationKey(loc)
		}})
	}
	if uid := pc.userID; uid != "" {
		preds = append(preds, Predicate{Name: "userId", Match: func(p *model.Property) bool {
			return p.UserID == uid
		}})
	}
	return preds
}

func pricePredicate(lo, hi *float64) Predicate {
	return Predicate{Name: "price", Match: func(p *model.Property) bool {
		if lo != nil && p.Price < *lo {
			return false
		}
		if hi != nil && p.Price > *hi {
			return false
		}
		return true
	}}
}

// detailAtLeast matches when the detail field is present and >= threshold
func detailAtLeast(name string, threshold float64, field func(d *model.PropertyDetails) *float64) Predicate {
	return Predicate{Name: name, Match: func(p *model.Property) bool {
		if p.PropertyDetails == nil {
			return false
		}
		v := field(p.PropertyDetails)
		return v != nil && *v > 0 && *v >= threshold
	}}
}

func attributePredicates(pc *parsedCriteria) []Predicate {
	var preds []Predicate
	if pc.bedrooms != nil {
		want := *pc.bedrooms
		preds = append(preds, Predicate{Name: "bedrooms", Match: func(p *model.Property) bool {
			return float64(p.Bedrooms) >= want
		}})
	}
	if pc.bathrooms != nil {
		want := *pc.bathrooms
		preds = append(preds, Predicate{Name: "bathrooms", Match: func(p *model.Property) bool {
			return float64(p.Bathrooms) >= want
		}})
	}
	if term := pc.searchTerm; term != "" {
		preds = append(preds, Predicate{Name: "search", Match: func(p *model.Property) bool {
			return utils.ContainsFold(p.Title, term) ||
				utils.ContainsFold(p.Location, term) ||
				utils.ContainsFold(p.Description, term)
		}})
	}
	if pc.seating != nil {
		preds = append(preds, detailAtLeast("seatingCapacity", *pc.seating,
			func(d *model.PropertyDetails) *float64 { return d.SeatingCapacity }))
	}
	if pc.centerArea != nil {
		preds = append(preds, detailAtLeast("centerArea", *pc.centerArea,
			func(d *model.PropertyDetails) *float64 { return d.TotalCenterArea }))
	}
	if pc.weeklyHours != nil {
		preds = append(preds, detailAtLeast("weeklyHours", *pc.weeklyHours,
			func(d *model.PropertyDetails) *float64 { return d.TotalWeeklyHours }))
	}
	if pc.floorSize != nil {
		preds = append(preds, detailAtLeast("floorSize", *pc.floorSize,
			func(d *model.PropertyDetails) *float64 { return d.FloorSize }))
	}
	if grade := pc.buildingGrade; grade != "" {
		preds = append(preds, Predicate{Name: "buildingGrade", Match: func(p *model.Property) bool {
			return p.PropertyDetails != nil && p.PropertyDetails.BuildingGrade.Matches(grade)
		}})
	}
	if f := pc.furnishing; f != model.FurnishingNone {
		preds = append(preds, Predicate{Name: "furnishing", Match: func(p *model.Property) bool {
			return p.PropertyDetails != nil && p.PropertyDetails.Furnishing == f
		}})
	}
	return preds
}

// Apply runs the in-memory predicates and the sort of a plan over properties
func (qp *QueryPlan) Apply(properties []model.Property) []model.Property {
	out := make([]model.Property, 0, len(properties))
	for i := range properties {
		keep := true
		for _, pred := range qp.Predicates {
			if !pred.Match(&properties[i]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, properties[i])
		}
	}
	SortProperties(out, qp.Sort)
	return out
}

// Execute plans, fetches, filters and sorts. Store failures become
// QueryFailed; nothing is retried or cached.
func (pl *Planner) Execute(ctx context.Context, c model.FilterCriteria) (*QueryResult, error) {
	plan, err := pl.Plan(c)
	if err != nil {
		return nil, err
	}

	var fetched []model.Property
	switch plan.Route {
	case RouteFetchWhere:
		fetched, err = pl.properties.FetchWhere(ctx, plan.Equalities...)
	case RouteFetchRange:
		fetched, err = pl.properties.FetchRange(ctx, plan.Ranges...)
	default:
		fetched, err = pl.properties.FetchAll(ctx)
	}
	if err != nil {
		return nil, &model.QueryFailed{Op: string(plan.Route), Err: err}
	}

	results := plan.Apply(fetched)
	pl.logger.Debug("property query executed",
		"route", plan.Route,
		"predicates", plan.PredicateNames(),
		"fetched", len(fetched),
		"matched", len(results),
	)
	return &QueryResult{Properties: results, Plan: plan}, nil
}
