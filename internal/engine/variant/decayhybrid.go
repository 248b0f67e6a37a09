package variant

import (
	"log"

	"FPSpectra/internal/config"
	"FPSpectra/internal/factory"
	"FPSpectra/internal/fptree"
	"FPSpectra/internal/model"
)

func init() {
	factory.RegisterStrategy("decayhybrid", func(cfg *config.Config) (model.Strategy, error) {
		return NewDecayHybrid(cfg.Engine.MinSupport,
			cfg.Engine.DecayHybrid.DecayFactor, cfg.Engine.DecayHybrid.PruneEpsilon), nil
	})
}

// DecayHybrid is the DH strategy: no discrete window boundary at all.
// Before each insertion every count in the tree is multiplied by the
// decay factor, then the new transaction's path is incremented by 1.
// Eviction is O(1) amortised because old transactions never leave
// explicitly; they vanish asymptotically. Nodes whose decayed count
// drops below the prune epsilon are removed so the float counts cannot
// underflow and memory stays bounded. Minimum-support comparisons run on
// the continuous count domain against the tree's decayed total weight.
type DecayHybrid struct {
	tree       *fptree.Tree
	minSupport float64
	decay      float64
	epsilon    float64
	inserted   uint64
}

// NewDecayHybrid creates a DH strategy with decay factor in (0,1).
func NewDecayHybrid(minSupport, decay, epsilon float64) *DecayHybrid {
	return &DecayHybrid{
		tree:       fptree.New(),
		minSupport: minSupport,
		decay:      decay,
		epsilon:    epsilon,
	}
}

func (s *DecayHybrid) Name() string { return "decayhybrid" }

// ManagesEviction is true: decay replaces explicit removal.
func (s *DecayHybrid) ManagesEviction() bool { return true }

func (s *DecayHybrid) ProcessTransaction(txn *model.Transaction) {
	s.tree.Scale(s.decay, s.epsilon)
	s.tree.Insert(orderItems(txn.Items, nil), 1)
	s.inserted++
}

func (s *DecayHybrid) EvictTransaction(txn *model.Transaction) {
	log.Printf("decayhybrid: unexpected explicit eviction for transaction %d, ignoring", txn.Seq)
}

// Mine uses the decayed window mass as the effective window size, so the
// threshold lives in the same continuous domain as the counts.
func (s *DecayHybrid) Mine() model.PatternSet {
	if s.tree.Empty() {
		return model.PatternSet{}
	}
	minCount := s.minSupport * s.tree.Weight()
	if minCount <= 0 {
		return model.PatternSet{}
	}
	patterns, err := s.tree.Mine(minCount)
	if err != nil {
		log.Printf("decayhybrid: mining failed: %v", err)
		return model.PatternSet{}
	}
	return patterns
}

// ItemSupport exposes the decayed support of a single item.
func (s *DecayHybrid) ItemSupport(item model.Item) float64 {
	return s.tree.ItemSupport(item)
}

// DecayHybridSnapshot is the diagnostic view of a DH instance: the decay
// counter state readable by drift tooling.
type DecayHybridSnapshot struct {
	Inserted  uint64
	Weight    float64
	NodeCount int
	Supports  map[model.Item]float64
}

func (s *DecayHybrid) Snapshot() any {
	return DecayHybridSnapshot{
		Inserted:  s.inserted,
		Weight:    s.tree.Weight(),
		NodeCount: s.tree.NodeCount(),
		Supports:  s.tree.Supports(),
	}
}

func (s *DecayHybrid) Reset() {
	s.tree.Reset()
	s.inserted = 0
}
