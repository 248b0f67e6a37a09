package baseline

import (
	"math"
	"math/rand"

	"FPSpectra/internal/model"
)

type rcfNode struct {
	splitDim int
	splitVal float64
	left     int32
	right    int32
	size     int
}

type rcfTree struct {
	arena []rcfNode
	// bounding box of the sample the tree was built over; a query outside
	// it would be isolated by the first random cut almost surely.
	mins [hsDims]float64
	maxs [hsDims]float64
}

// RCF is a streaming Random Cut Forest detector over the folded
// item-presence vectors. Each tree is a random-cut tree over a shared
// reservoir of the most recent sampleSize transactions, rebuilt every
// half reservoir; the cut dimension is drawn proportionally to the
// per-dimension range, the cut point uniformly within it. The anomaly
// score is the isolation-depth estimate 2^(-E[h(x)]/c(n)): points that
// random cuts separate from the sample quickly score close to 1.
type RCF struct {
	numTrees   int
	sampleSize int
	seed       int64

	buf    [][hsDims]float64 // ring of the most recent sampleSize vectors
	pos    int
	filled int

	trees     []rcfTree
	builtSize int // reservoir fill the current forest was grown over
	seen      int
	rebuilds  int
}

// NewRCF creates the detector. The forest is first built after half a
// reservoir has streamed in; transactions before that score 0.
func NewRCF(numTrees, sampleSize int, seed int64) *RCF {
	if numTrees < 1 {
		numTrees = 1
	}
	if sampleSize < 2 {
		sampleSize = 2
	}
	return &RCF{
		numTrees:   numTrees,
		sampleSize: sampleSize,
		seed:       seed,
		buf:        make([][hsDims]float64, sampleSize),
	}
}

func (r *RCF) Name() string { return "rcf" }

// Observe scores the transaction against the current forest, then admits
// it into the reservoir.
func (r *RCF) Observe(txn *model.Transaction) float64 {
	var x [hsDims]float64
	vectorize(txn.Items, &x)

	score := r.score(&x)
	r.update(&x)
	return score
}

// Warm replays a transaction into the reservoir without scoring. The
// forest depends only on the stream position, so remaining is unused.
func (r *RCF) Warm(txn *model.Transaction, remaining int) {
	var x [hsDims]float64
	vectorize(txn.Items, &x)
	r.update(&x)
}

func (r *RCF) update(x *[hsDims]float64) {
	r.buf[r.pos] = *x
	r.pos = (r.pos + 1) % r.sampleSize
	if r.filled < r.sampleSize {
		r.filled++
	}

	r.seen++
	if r.seen%(r.sampleSize/2+1) == 0 {
		r.rebuild()
	}
}

// rebuild regrows every tree over the current reservoir. Each rebuild
// reseeds from the base seed and the rebuild index, so a Reset detector
// replays identically.
func (r *RCF) rebuild() {
	rng := rand.New(rand.NewSource(r.seed + int64(r.rebuilds)*1099511628211))
	r.rebuilds++

	points := make([][hsDims]float64, r.filled)
	copy(points, r.buf[:r.filled])
	r.builtSize = r.filled

	r.trees = make([]rcfTree, r.numTrees)
	for t := range r.trees {
		idx := make([]int, len(points))
		for i := range idx {
			idx[i] = i
		}
		tree := &r.trees[t]
		boundingBox(points, idx, &tree.mins, &tree.maxs)
		tree.arena = growRCFNode(tree.arena[:0], rng, points, idx)
	}
}

func boundingBox(points [][hsDims]float64, idx []int, mins, maxs *[hsDims]float64) {
	for d := 0; d < hsDims; d++ {
		mins[d], maxs[d] = math.Inf(1), math.Inf(-1)
	}
	for _, i := range idx {
		for d := 0; d < hsDims; d++ {
			if points[i][d] < mins[d] {
				mins[d] = points[i][d]
			}
			if points[i][d] > maxs[d] {
				maxs[d] = points[i][d]
			}
		}
	}
}

// growRCFNode appends a random-cut subtree over the given point subset
// and returns the grown arena. A subset with zero total range (all
// points identical) becomes a leaf.
func growRCFNode(arena []rcfNode, rng *rand.Rand, points [][hsDims]float64, idx []int) []rcfNode {
	self := int32(len(arena))
	arena = append(arena, rcfNode{splitDim: -1, left: -1, right: -1, size: len(idx)})

	var mins, maxs [hsDims]float64
	boundingBox(points, idx, &mins, &maxs)
	span := 0.0
	for d := 0; d < hsDims; d++ {
		span += maxs[d] - mins[d]
	}
	if len(idx) <= 1 || span == 0 {
		return arena
	}

	// Cut dimension proportional to range, cut point uniform in the range.
	pick := rng.Float64() * span
	dim := 0
	for d := 0; d < hsDims; d++ {
		pick -= maxs[d] - mins[d]
		if pick < 0 {
			dim = d
			break
		}
	}
	val := mins[dim] + rng.Float64()*(maxs[dim]-mins[dim])
	if !(val > mins[dim]) {
		return arena
	}

	var left, right []int
	for _, i := range idx {
		if points[i][dim] < val {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	arena[self].splitDim = dim
	arena[self].splitVal = val
	arena[self].left = int32(len(arena))
	arena = growRCFNode(arena, rng, points, left)
	arena[self].right = int32(len(arena))
	return growRCFNode(arena, rng, points, right)
}

// score averages the isolation path length of x over the forest. A query
// outside a tree's bounding box counts as isolated at depth zero; inside,
// the path is the cut depth plus the unbuilt-subtree estimate c(leaf).
func (r *RCF) score(x *[hsDims]float64) float64 {
	if len(r.trees) == 0 {
		return 0
	}

	total := 0.0
	for i := range r.trees {
		tree := &r.trees[i]
		outside := false
		for d := 0; d < hsDims; d++ {
			if x[d] < tree.mins[d] || x[d] > tree.maxs[d] {
				outside = true
				break
			}
		}
		if outside {
			continue // path length 0
		}

		idx := int32(0)
		depth := 0.0
		for {
			node := &tree.arena[idx]
			if node.splitDim < 0 {
				total += depth + avgPathLength(node.size)
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
	return math.Pow(2, -total/float64(len(r.trees))/avgPathLength(r.builtSize))
}

// avgPathLength is the expected unsuccessful-search depth of a random
// binary tree over n points.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

// Reset drops the reservoir and the forest; replaying the same stream
// regrows identical trees.
func (r *RCF) Reset() {
	r.buf = make([][hsDims]float64, r.sampleSize)
	r.pos = 0
	r.filled = 0
	r.trees = nil
	r.builtSize = 0
	r.seen = 0
	r.rebuilds = 0
}
