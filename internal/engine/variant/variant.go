// Package variant implements the four sliding-window FP-tree maintenance
// strategies: no-reorder, partial-rebuild, two-tree and decay-hybrid.
// Each strategy registers itself with the factory under its config name.
package variant

import (
	"slices"

	"FPSpectra/internal/model"
)

// orderItems returns the transaction's items sorted by the given rank
// snapshot, ascending. Items absent from the snapshot sort after ranked
// ones, by item identifier; a nil snapshot yields plain identifier order.
// The input slice is not modified.
func orderItems(items []model.Item, rank map[model.Item]int) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	slices.SortFunc(out, func(a, b model.Item) int {
		ra, aok := rank[a]
		rb, bok := rank[b]
		switch {
		case aok && bok && ra != rb:
			return ra - rb
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return out
}

// rankByFrequency assigns dense ranks 0..n-1 to items by descending
// frequency, ties broken by ascending item identifier.
func rankByFrequency(freq map[model.Item]float64) map[model.Item]int {
	items := make([]model.Item, 0, len(freq))
	for item := range freq {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b model.Item) int {
		fa, fb := freq[a], freq[b]
		switch {
		case fa > fb:
			return -1
		case fa < fb:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	ranks := make(map[model.Item]int, len(items))
	for i, item := range items {
		ranks[item] = i
	}
	return ranks
}
