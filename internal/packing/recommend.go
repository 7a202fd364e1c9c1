package packing

import "math"

// Recommendation suggests an item type and the most units of it that would
// still fit the leftover capacity.
type Recommendation struct {
	Item        ItemType `json:"item"`
	MaxQuantity int      `json:"maxQuantity"`
}

// Recommend proposes, for every catalog item with positive volume and weight,
// the largest quantity that fits both the remaining volume and weight.
// Items with no room are omitted.
func Recommend(remainingVolume, remainingWeight float64, catalog []ItemType) []Recommendation {
	var out []Recommendation
	for _, item := range catalog {
		volume := item.Volume()
		if volume <= 0 || item.Weight <= 0 {
			continue
		}
		byVolume := math.Floor(remainingVolume / volume)
		byWeight := math.Floor(remainingWeight / item.Weight)
		qty := math.Min(byVolume, byWeight)
		if !(qty >= 1) {
			continue
		}
		out = append(out, Recommendation{Item: item, MaxQuantity: saturate(qty)})
	}
	return out
}

// saturate converts a non-negative whole quantity, capping it at math.MaxInt.
func saturate(q float64) int {
	if q >= math.MaxInt {
		return math.MaxInt
	}
	return int(q)
}

// MergeRecommendations folds recommendation lists from several containers
// into one, summing MaxQuantity per item type. First-seen order is kept.
func MergeRecommendations(lists ...[]Recommendation) []Recommendation {
	var merged []Recommendation
	index := make(map[string]int)
	for _, list := range lists {
		for _, rec := range list {
			if i, ok := index[rec.Item.ID]; ok {
				merged[i].MaxQuantity = addSaturating(merged[i].MaxQuantity, rec.MaxQuantity)
				continue
			}
			index[rec.Item.ID] = len(merged)
			merged = append(merged, rec)
		}
	}
	return merged
}

func addSaturating(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}
