package variant

import (
	"log"
	"math"

	"FPSpectra/internal/config"
	"FPSpectra/internal/factory"
	"FPSpectra/internal/fptree"
	"FPSpectra/internal/model"
)

func init() {
	factory.RegisterStrategy("partialrebuild", func(cfg *config.Config) (model.Strategy, error) {
		return NewPartialRebuild(cfg.Engine.WindowSize, cfg.Engine.MinSupport,
			cfg.Engine.PartialRebuild.RebuildThreshold), nil
	})
}

// PartialRebuild is the PR strategy: items are ordered by a frequency-rank
// snapshot that is frozen between rebuilds. Per-item rank drift against
// the snapshot is tracked on every insertion; once the fraction of items
// whose rank shifted beyond the rebuild threshold exceeds that threshold,
// only the window transactions containing drifted items are removed and
// reinserted under the new ordering. When items near the head of the
// ordering drift, most transactions contain them and the local rebuild
// degenerates to a full one; that is the correct, if expensive, behavior.
//
// The window manager evicts insert-then-evict and hands the window
// contents to Rebuild, so the ordering used for removal always matches
// the snapshot the paths were inserted under.
type PartialRebuild struct {
	tree       *fptree.Tree
	minSupport float64
	windowSize int
	threshold  float64

	freq    map[model.Item]float64
	order   map[model.Item]int // rank snapshot as of the last rebuild
	pending bool

	// Re-ranking the frequency map is O(n log n) in distinct items, so
	// drift is checked every checkEvery insertions rather than on each one.
	checkEvery int
	sinceCheck int

	fill     int
	rebuilds int
	maxDrift float64
}

// NewPartialRebuild creates a PR strategy with the given rank-drift
// rebuild threshold in (0,1].
func NewPartialRebuild(windowSize int, minSupport, threshold float64) *PartialRebuild {
	checkEvery := windowSize / 10
	if checkEvery < 1 {
		checkEvery = 1
	}
	return &PartialRebuild{
		tree:       fptree.New(),
		minSupport: minSupport,
		windowSize: windowSize,
		threshold:  threshold,
		checkEvery: checkEvery,
		freq:       make(map[model.Item]float64),
	}
}

func (s *PartialRebuild) Name() string { return "partialrebuild" }

func (s *PartialRebuild) ManagesEviction() bool { return false }

func (s *PartialRebuild) ProcessTransaction(txn *model.Transaction) {
	for _, item := range txn.Items {
		s.freq[item]++
	}
	s.tree.Insert(orderItems(txn.Items, s.order), 1)
	s.fill++

	s.sinceCheck++
	if s.sinceCheck >= s.checkEvery {
		s.checkDrift()
		s.sinceCheck = 0
	}
}

func (s *PartialRebuild) EvictTransaction(txn *model.Transaction) {
	for _, item := range txn.Items {
		s.freq[item]--
		if s.freq[item] <= 0 {
			delete(s.freq, item)
		}
	}
	if !s.tree.Remove(orderItems(txn.Items, s.order), 1) {
		log.Printf("partialrebuild: evicted transaction %d not present in tree, skipping", txn.Seq)
		return
	}
	s.fill--
}

// checkDrift compares current frequency ranks against the frozen snapshot
// and flags a rebuild when the drifted-item fraction crosses the
// threshold. The first call only seeds the snapshot. Runs on the
// checkEvery cadence, not per insertion.
func (s *PartialRebuild) checkDrift() {
	if len(s.freq) == 0 {
		return
	}
	current := rankByFrequency(s.freq)
	if s.order == nil {
		s.order = current
		return
	}

	total := len(current)
	if n := len(s.order); n > total {
		total = n
	}
	drifted := 0
	s.maxDrift = 0
	for item, rank := range current {
		prev, ok := s.order[item]
		if !ok {
			prev = total
		}
		shift := math.Abs(float64(rank-prev)) / float64(total)
		if shift > s.maxDrift {
			s.maxDrift = shift
		}
		if shift > s.threshold {
			drifted++
		}
	}
	if float64(drifted)/float64(total) > s.threshold {
		s.pending = true
	}
}

// NeedsRebuild reports whether rank drift has crossed the threshold since
// the last rebuild.
func (s *PartialRebuild) NeedsRebuild() bool { return s.pending }

// Rebuild reorganises only the affected portion of the tree: window
// transactions containing at least one item whose rank changed are
// removed under the old ordering and reinserted under the new one.
// Transactions built purely from rank-stable items sort identically under
// both snapshots and are left untouched.
func (s *PartialRebuild) Rebuild(window []*model.Transaction) {
	s.pending = false
	next := rankByFrequency(s.freq)

	changed := make(map[model.Item]bool)
	for item, rank := range next {
		if prev, ok := s.order[item]; !ok || prev != rank {
			changed[item] = true
		}
	}
	for item := range s.order {
		if _, ok := next[item]; !ok {
			changed[item] = true
		}
	}
	if len(changed) == 0 {
		s.order = next
		return
	}

	affected := 0
	for _, txn := range window {
		touches := false
		for _, item := range txn.Items {
			if changed[item] {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		affected++
		if !s.tree.Remove(orderItems(txn.Items, s.order), 1) {
			log.Printf("partialrebuild: transaction %d missing during rebuild, reinserting anyway", txn.Seq)
		}
		s.tree.Insert(orderItems(txn.Items, next), 1)
	}

	s.order = next
	s.rebuilds++
	log.Printf("partialrebuild: rebuilt %d/%d window transactions (%d drifted items)",
		affected, len(window), len(changed))
}

func (s *PartialRebuild) Mine() model.PatternSet {
	minCount := s.minSupport * float64(s.fill)
	if minCount < 1 {
		minCount = 1
	}
	patterns, err := s.tree.Mine(minCount)
	if err != nil {
		log.Printf("partialrebuild: mining failed: %v", err)
		return model.PatternSet{}
	}
	return patterns
}

// PartialRebuildSnapshot is the diagnostic view of a PR instance.
type PartialRebuildSnapshot struct {
	WindowFill int
	NodeCount  int
	Rebuilds   int
	MaxDrift   float64
	Supports   map[model.Item]float64
}

func (s *PartialRebuild) Snapshot() any {
	return PartialRebuildSnapshot{
		WindowFill: s.fill,
		NodeCount:  s.tree.NodeCount(),
		Rebuilds:   s.rebuilds,
		MaxDrift:   s.maxDrift,
		Supports:   s.tree.Supports(),
	}
}

func (s *PartialRebuild) Reset() {
	s.tree.Reset()
	s.freq = make(map[model.Item]float64)
	s.order = nil
	s.pending = false
	s.sinceCheck = 0
	s.fill = 0
	s.rebuilds = 0
	s.maxDrift = 0
}
