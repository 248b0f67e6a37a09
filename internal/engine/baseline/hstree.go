// Package baseline provides non-FP-tree anomaly detectors used as
// comparison floors in evaluation runs: streaming Half-Space Trees, a
// random cut forest, an online autoencoder and a per-item frequency
// scorer. All satisfy the same Detector contract as the pattern-based
// strategies.
package baseline

import (
	"math"
	"math/rand"

	"FPSpectra/internal/model"
)

// hsDims is the fixed length of the binary item-presence vector. Items
// are folded into dimensions by modulo.
const hsDims = 64

type hsNode struct {
	splitDim int
	splitVal float64
	left     int32
	right    int32

	// reference and latest mass profiles; swapped each window.
	r float64
	l float64
}

// HSTree is a streaming Half-Space Trees detector. An ensemble of random
// binary-split trees records region mass over the previous window (the
// reference profile) while accumulating the current window (the latest
// profile); the profiles swap every windowSize transactions. A
// transaction falling into low-mass regions across the ensemble scores
// close to 1.
type HSTree struct {
	trees      [][]hsNode
	depth      int
	windowSize int

	seen   int
	warmed bool
}

// NewHSTree builds the ensemble deterministically from the seed. The
// tree structure is fixed for the detector's lifetime; only mass
// profiles change as transactions stream through.
func NewHSTree(numTrees, depth, windowSize int, seed int64) *HSTree {
	if numTrees < 1 {
		numTrees = 1
	}
	if depth < 1 {
		depth = 1
	}
	if windowSize < 1 {
		windowSize = 1
	}
	rng := rand.New(rand.NewSource(seed))

	h := &HSTree{
		trees:      make([][]hsNode, numTrees),
		depth:      depth,
		windowSize: windowSize,
	}
	for t := range h.trees {
		mins := make([]float64, hsDims)
		maxs := make([]float64, hsDims)
		for d := 0; d < hsDims; d++ {
			s := rng.Float64()
			span := 2 * math.Max(s, 1-s)
			mins[d] = s - span
			maxs[d] = s + span
		}
		arena := make([]hsNode, 0, (1<<(depth+1))-1)
		arena = buildHSNode(arena, rng, mins, maxs, 0, depth)
		h.trees[t] = arena
	}
	return h
}

// buildHSNode appends a subtree to the arena and returns the grown
// arena. The appended subtree's root is at the index the arena had on
// entry.
func buildHSNode(arena []hsNode, rng *rand.Rand, mins, maxs []float64, depth, maxDepth int) []hsNode {
	self := int32(len(arena))
	arena = append(arena, hsNode{splitDim: -1, left: -1, right: -1})
	if depth == maxDepth {
		return arena
	}

	q := rng.Intn(hsDims)
	mid := (mins[q] + maxs[q]) / 2
	arena[self].splitDim = q
	arena[self].splitVal = mid

	hi := maxs[q]
	maxs[q] = mid
	arena[self].left = int32(len(arena))
	arena = buildHSNode(arena, rng, mins, maxs, depth+1, maxDepth)
	maxs[q] = hi

	lo := mins[q]
	mins[q] = mid
	arena[self].right = int32(len(arena))
	arena = buildHSNode(arena, rng, mins, maxs, depth+1, maxDepth)
	mins[q] = lo
	return arena
}

func (h *HSTree) Name() string { return "hstree" }

// Observe scores the transaction against the reference mass profile,
// then folds it into the latest profile.
func (h *HSTree) Observe(txn *model.Transaction) float64 {
	var x [hsDims]float64
	vectorize(txn.Items, &x)

	score := h.score(&x)
	h.update(&x)
	return score
}

// Warm replays a transaction into the mass profiles without scoring.
// The mass profiles carry no cadence state, so remaining is unused.
func (h *HSTree) Warm(txn *model.Transaction, remaining int) {
	var x [hsDims]float64
	vectorize(txn.Items, &x)
	h.update(&x)
}

func vectorize(items []model.Item, x *[hsDims]float64) {
	for _, it := range items {
		x[int(it)%hsDims] = 1
	}
}

// score averages per-tree normalized mass and inverts it. Each tree
// contributes min(1, r*2^depth / window) at the node where traversal
// stops (leaf or empty region). Before the first profile swap the latest
// profile stands in for the reference.
func (h *HSTree) score(x *[hsDims]float64) float64 {
	denom := float64(h.windowSize)
	if !h.warmed {
		denom = math.Max(1, float64(h.seen))
	}

	total := 0.0
	for _, arena := range h.trees {
		idx := int32(0)
		depth := 0
		for {
			node := &arena[idx]
			mass := node.r
			if !h.warmed {
				mass = node.l
			}
			if node.splitDim < 0 || mass < 1 {
				total += math.Min(1, mass*math.Pow(2, float64(depth))/denom)
				break
			}
			if x[node.splitDim] < node.splitVal {
				idx = node.left
			} else {
				idx = node.right
			}
			depth++
		}
	}
	return 1 - total/float64(len(h.trees))
}

func (h *HSTree) update(x *[hsDims]float64) {
	for _, arena := range h.trees {
		idx := int32(0)
		for {
			node := &arena[idx]
			node.l++
			if node.splitDim < 0 {
				break
			}
			if x[node.splitDim] < node.splitVal {
				idx = node.left
			} else {
				idx = node.right
			}
		}
	}

	h.seen++
	if h.seen%h.windowSize == 0 {
		for _, arena := range h.trees {
			for i := range arena {
				arena[i].r = arena[i].l
				arena[i].l = 0
			}
		}
		h.warmed = true
	}
}

// Reset clears both mass profiles; the random tree structure is kept so
// a reset detector replays identically.
func (h *HSTree) Reset() {
	for _, arena := range h.trees {
		for i := range arena {
			arena[i].r = 0
			arena[i].l = 0
		}
	}
	h.seen = 0
	h.warmed = false
}
