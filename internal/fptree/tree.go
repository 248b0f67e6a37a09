// Package fptree implements the compressed prefix tree (FP-tree) used by
// all sliding-window maintenance strategies: weighted insertion and
// removal of item paths, a header table chaining same-item nodes, and
// iterative FP-Growth pattern mining.
//
// Nodes live in an arena and are addressed by integer handles. The tree
// owns every node; the header table and the per-item horizontal chains
// hold non-owning handles, which keeps ownership unambiguous when nodes
// are pruned. Counts are float64 so the decay-hybrid strategy can operate
// on continuous counts; the other strategies only ever store whole
// numbers.
package fptree

import (
	"FPSpectra/internal/model"
)

const (
	nilNode = int32(-1)

	// countEpsilon is the tolerance below which a float count is treated
	// as zero when deciding whether a node or header entry is empty.
	countEpsilon = 1e-9
)

type node struct {
	item     model.Item
	count    float64
	parent   int32
	next     int32 // horizontal same-item chain
	children map[model.Item]int32
}

type headerEntry struct {
	support float64
	head    int32
	tail    int32
}

// Tree is a frequent-pattern tree over the transactions currently inside
// a sliding window. The tree never holds transactions, only their
// aggregated effect; window bookkeeping belongs to the caller.
type Tree struct {
	nodes  []node
	free   []int32
	root   int32
	header map[model.Item]*headerEntry
	weight float64 // total inserted transaction weight (root count)
}

// New creates an empty FP-tree.
func New() *Tree {
	t := &Tree{header: make(map[model.Item]*headerEntry)}
	t.root = t.alloc(0, nilNode)
	return t
}

func (t *Tree) alloc(item model.Item, parent int32) int32 {
	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[h] = node{item: item, parent: parent, next: nilNode}
		return h
	}
	t.nodes = append(t.nodes, node{item: item, parent: parent, next: nilNode})
	return int32(len(t.nodes) - 1)
}

// Insert adds one ordered item path with the given weight, creating new
// nodes or incrementing counts along shared prefixes and updating the
// header table. Weight is 1 for ordinary transactions; conditional-tree
// construction during mining inserts prefix paths with their path counts.
func (t *Tree) Insert(path []model.Item, weight float64) {
	cur := t.root
	t.weight += weight
	for _, item := range path {
		child, ok := t.childOf(cur, item)
		if !ok {
			child = t.alloc(item, cur)
			if t.nodes[cur].children == nil {
				t.nodes[cur].children = make(map[model.Item]int32)
			}
			t.nodes[cur].children[item] = child
			t.chainAppend(item, child)
		}
		t.nodes[child].count += weight
		t.headerFor(item).support += weight
		cur = child
	}
}

// Remove decrements counts along the path and prunes nodes whose count
// reaches zero, unlinking them from their parent and from the header
// chain. It returns false without modifying the tree if the path is not
// present; correct window bookkeeping should prevent that, and the caller
// is expected to log and skip.
func (t *Tree) Remove(path []model.Item, weight float64) bool {
	// Resolve the full path first so a missing node cannot corrupt counts.
	handles := make([]int32, 0, len(path))
	cur := t.root
	for _, item := range path {
		child, ok := t.childOf(cur, item)
		if !ok {
			return false
		}
		handles = append(handles, child)
		cur = child
	}

	t.weight -= weight
	for i, h := range handles {
		t.nodes[h].count -= weight
		t.headerFor(path[i]).support -= weight
	}
	for i := len(handles) - 1; i >= 0; i-- {
		if t.nodes[handles[i]].count > countEpsilon {
			break
		}
		t.unlink(handles[i])
	}
	for _, item := range path {
		if entry, ok := t.header[item]; ok && entry.support <= countEpsilon {
			delete(t.header, item)
		}
	}
	return true
}

// Scale multiplies every count in the tree by factor and prunes subtrees
// whose root count falls below epsilon. Counts are non-increasing along
// any root-to-leaf path, so a node under epsilon implies its whole
// subtree is under epsilon.
func (t *Tree) Scale(factor, epsilon float64) {
	t.weight *= factor
	for _, entry := range t.header {
		entry.support *= factor
	}

	// First pass scales every node, second pass prunes. Pruning subtracts
	// subtree counts from header supports, so all counts must be scaled
	// before any subtree is dropped.
	stack := []int32{t.root}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range t.nodes[h].children {
			t.nodes[child].count *= factor
			stack = append(stack, child)
		}
	}
	stack = append(stack, t.root)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range t.nodes[h].children {
			if t.nodes[child].count < epsilon {
				t.dropSubtree(child)
			} else {
				stack = append(stack, child)
			}
		}
	}

	for item, entry := range t.header {
		if entry.support <= countEpsilon || entry.head == nilNode {
			delete(t.header, item)
		}
	}
}

// dropSubtree removes a node and all of its descendants, unlinking each
// from the header chains and returning the handles to the free list.
// Header supports are reduced by the dropped counts.
func (t *Tree) dropSubtree(h int32) {
	stack := []int32{h}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range t.nodes[cur].children {
			stack = append(stack, child)
		}
		if entry, ok := t.header[t.nodes[cur].item]; ok {
			entry.support -= t.nodes[cur].count
		}
		t.unlink(cur)
	}
}

// unlink detaches a single node from its parent and header chain and
// frees its handle. Children must already be gone or be detached by the
// caller via dropSubtree.
func (t *Tree) unlink(h int32) {
	n := &t.nodes[h]
	if n.parent != nilNode {
		delete(t.nodes[n.parent].children, n.item)
	}
	t.chainRemove(n.item, h)
	n.children = nil
	n.parent = nilNode
	t.free = append(t.free, h)
}

func (t *Tree) childOf(h int32, item model.Item) (int32, bool) {
	child, ok := t.nodes[h].children[item]
	return child, ok
}

func (t *Tree) headerFor(item model.Item) *headerEntry {
	entry, ok := t.header[item]
	if !ok {
		entry = &headerEntry{head: nilNode, tail: nilNode}
		t.header[item] = entry
	}
	return entry
}

func (t *Tree) chainAppend(item model.Item, h int32) {
	entry := t.headerFor(item)
	if entry.head == nilNode {
		entry.head = h
		entry.tail = h
		return
	}
	t.nodes[entry.tail].next = h
	entry.tail = h
}

func (t *Tree) chainRemove(item model.Item, h int32) {
	entry, ok := t.header[item]
	if !ok {
		return
	}
	prev := nilNode
	for cur := entry.head; cur != nilNode; cur = t.nodes[cur].next {
		if cur != h {
			prev = cur
			continue
		}
		if prev == nilNode {
			entry.head = t.nodes[cur].next
		} else {
			t.nodes[prev].next = t.nodes[cur].next
		}
		if entry.tail == h {
			entry.tail = prev
		}
		t.nodes[h].next = nilNode
		return
	}
}

// ItemSupport returns the aggregate support of an item across the tree.
func (t *Tree) ItemSupport(item model.Item) float64 {
	if entry, ok := t.header[item]; ok {
		return entry.support
	}
	return 0
}

// Weight returns the total weight of transactions currently represented
// by the tree. For unit-weight insertions this is the transaction count;
// under decay it is the decayed window mass.
func (t *Tree) Weight() float64 {
	return t.weight
}

// NodeCount returns the number of live nodes, excluding the root. Used
// for memory diagnostics.
func (t *Tree) NodeCount() int {
	return len(t.nodes) - len(t.free) - 1
}

// Empty reports whether the tree holds no items.
func (t *Tree) Empty() bool {
	return len(t.header) == 0
}

// Supports returns a copy of the header table's aggregate supports.
func (t *Tree) Supports() map[model.Item]float64 {
	out := make(map[model.Item]float64, len(t.header))
	for item, entry := range t.header {
		out[item] = entry.support
	}
	return out
}

// Reset discards all nodes and header entries.
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.header = make(map[model.Item]*headerEntry)
	t.weight = 0
	t.root = t.alloc(0, nilNode)
}

// prefixPath returns the items on the path from the root to h, excluding
// h itself, in root-to-node order.
func (t *Tree) prefixPath(h int32) []model.Item {
	var rev []model.Item
	for cur := t.nodes[h].parent; cur != t.root && cur != nilNode; cur = t.nodes[cur].parent {
		rev = append(rev, t.nodes[cur].item)
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
