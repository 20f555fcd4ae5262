package service

import (
	"sort"

	"spacemarket/internal/model"
)

// SortProperties orders properties in place. Ties fall back to the document
// id so that the same input always yields the same order.
func SortProperties(properties []model.Property, key model.SortKey) {
	less := sortLess(key)
	sort.SliceStable(properties, func(i, j int) bool {
		a, b := &properties[i], &properties[j]
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// sortLess returns a three-way comparison for the sort key
func sortLess(key model.SortKey) func(a, b *model.Property) int {
	switch key {
	case model.SortPriceAsc:
		return func(a, b *model.Property) int { return compareFloat(a.Price, b.Price) }
	case model.SortPriceDesc:
		return func(a, b *model.Property) int { return compareFloat(b.Price, a.Price) }
	case model.SortSizeAsc:
		return func(a, b *model.Property) int { return compareFloat(a.Size(), b.Size()) }
	case model.SortSizeDesc:
		return func(a, b *model.Property) int { return compareFloat(b.Size(), a.Size()) }
	default:
		return func(a, b *model.Property) int {
			switch {
			case a.CreatedAt.After(b.CreatedAt):
				return -1
			case a.CreatedAt.Before(b.CreatedAt):
				return 1
			}
			return 0
		}
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
