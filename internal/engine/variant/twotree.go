package variant

import (
	"log"

	"FPSpectra/internal/config"
	"FPSpectra/internal/factory"
	"FPSpectra/internal/fptree"
	"FPSpectra/internal/model"
)

func init() {
	factory.RegisterStrategy("twotree", func(cfg *config.Config) (model.Strategy, error) {
		return NewTwoTree(cfg.Engine.TwoTree.HalfWindowSize, cfg.Engine.MinSupport), nil
	})
}

// TwoTree is the TT strategy: two independent half-window trees. New
// transactions always enter the active tree; when it reaches half-window
// capacity the previous stable tree is discarded, the active tree becomes
// stable, and a fresh active tree is started. Eviction is an O(1) swap
// instead of per-transaction removal, at the cost of mining results that
// can be up to a full half-window stale. Near swap boundaries the two
// trees briefly cover overlapping or non-contiguous ranges; that
// transient support error is inherent to the design and is characterised
// by the staleness-bound test rather than masked.
type TwoTree struct {
	minSupport float64
	halfWindow int

	active *fptree.Tree
	stable *fptree.Tree

	activeFill int
	swaps      int
}

// NewTwoTree creates a TT strategy covering a full window of
// 2*halfWindow transactions.
func NewTwoTree(halfWindow int, minSupport float64) *TwoTree {
	return &TwoTree{
		minSupport: minSupport,
		halfWindow: halfWindow,
		active:     fptree.New(),
		stable:     fptree.New(),
	}
}

func (s *TwoTree) Name() string { return "twotree" }

// ManagesEviction is true: old data expires wholesale at half-tree swaps.
func (s *TwoTree) ManagesEviction() bool { return true }

func (s *TwoTree) ProcessTransaction(txn *model.Transaction) {
	// Both trees share the canonical identifier ordering so their path
	// shapes stay comparable across swaps.
	s.active.Insert(orderItems(txn.Items, nil), 1)
	s.activeFill++
	if s.activeFill >= s.halfWindow {
		s.stable = s.active
		s.active = fptree.New()
		s.activeFill = 0
		s.swaps++
	}
}

func (s *TwoTree) EvictTransaction(txn *model.Transaction) {
	// Never driven by the window manager; swaps handle expiry.
	log.Printf("twotree: unexpected explicit eviction for transaction %d, ignoring", txn.Seq)
}

// Mine approximates full-window statistics by summing each itemset's
// support across both trees. Each tree is mined at its own local
// threshold; the merged set is filtered at the combined threshold over
// the union's weight.
func (s *TwoTree) Mine() model.PatternSet {
	merged := make(model.PatternSet)
	for _, tree := range []*fptree.Tree{s.active, s.stable} {
		if tree.Empty() {
			continue
		}
		minCount := s.minSupport * tree.Weight()
		if minCount < 1 {
			minCount = 1
		}
		patterns, err := tree.Mine(minCount)
		if err != nil {
			log.Printf("twotree: mining failed: %v", err)
			continue
		}
		for key, pat := range patterns {
			if prev, ok := merged[key]; ok {
				merged[key] = model.Pattern{Items: pat.Items, Support: prev.Support + pat.Support}
			} else {
				merged[key] = pat
			}
		}
	}

	combined := s.minSupport * (s.active.Weight() + s.stable.Weight())
	if combined < 1 {
		combined = 1
	}
	for key, pat := range merged {
		if pat.Support < combined {
			delete(merged, key)
		}
	}
	return merged
}

// ItemSupport returns the summed support of an item across both trees.
func (s *TwoTree) ItemSupport(item model.Item) float64 {
	return s.active.ItemSupport(item) + s.stable.ItemSupport(item)
}

// TwoTreeSnapshot is the diagnostic view of a TT instance.
type TwoTreeSnapshot struct {
	Swaps        int
	ActiveFill   int
	StableWeight float64
	ActiveNodes  int
	StableNodes  int
}

func (s *TwoTree) Snapshot() any {
	return TwoTreeSnapshot{
		Swaps:        s.swaps,
		ActiveFill:   s.activeFill,
		StableWeight: s.stable.Weight(),
		ActiveNodes:  s.active.NodeCount(),
		StableNodes:  s.stable.NodeCount(),
	}
}

func (s *TwoTree) Reset() {
	s.active = fptree.New()
	s.stable = fptree.New()
	s.activeFill = 0
	s.swaps = 0
}
