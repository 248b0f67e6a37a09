package fptree

import (
	"FPSpectra/internal/model"

	"fmt"
	"slices"
)

// mineTask is one pending conditional-mining step: the suffix itemset
// accumulated so far and the conditional tree still to be processed.
// FP-Growth's natural formulation recurses into each conditional tree;
// recursion depth grows with the number of distinct items and exhausts
// the call stack on full-dataset streams, so mining processes an explicit
// work list instead.
type mineTask struct {
	suffix []model.Item
	tree   *Tree
}

// Mine performs FP-Growth mining over the tree and returns every itemset
// whose support is at least minCount. An empty tree yields an empty set.
// minCount must be positive; a non-positive threshold is a configuration
// error.
func (t *Tree) Mine(minCount float64) (model.PatternSet, error) {
	if minCount <= 0 {
		return nil, fmt.Errorf("fptree: min support count must be positive, got %g", minCount)
	}

	patterns := make(model.PatternSet)
	stack := []mineTask{{tree: t}}

	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Smaller conditional trees first: ascending support, ties broken
		// by item identifier so output is reproducible.
		for _, item := range task.tree.frequentItems(minCount) {
			suffix := make([]model.Item, 0, len(task.suffix)+1)
			suffix = append(suffix, task.suffix...)
			suffix = append(suffix, item)
			patterns.Add(model.NewItemset(suffix...), task.tree.ItemSupport(item))

			cond := task.tree.conditionalTree(item)
			if !cond.Empty() {
				stack = append(stack, mineTask{suffix: suffix, tree: cond})
			}
		}
	}
	return patterns, nil
}

// frequentItems returns the items meeting minCount, in ascending support
// order with ties broken by ascending item identifier.
func (t *Tree) frequentItems(minCount float64) []model.Item {
	items := make([]model.Item, 0, len(t.header))
	for item, entry := range t.header {
		if entry.support >= minCount-countEpsilon {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b model.Item) int {
		sa, sb := t.header[a].support, t.header[b].support
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return items
}

// conditionalTree builds the conditional FP-tree for an item from its
// conditional pattern base: every prefix path of the item's horizontal
// chain, weighted by the chain node's count.
func (t *Tree) conditionalTree(item model.Item) *Tree {
	cond := New()
	entry, ok := t.header[item]
	if !ok {
		return cond
	}
	for cur := entry.head; cur != nilNode; cur = t.nodes[cur].next {
		if path := t.prefixPath(cur); len(path) > 0 {
			cond.Insert(path, t.nodes[cur].count)
		}
	}
	return cond
}
