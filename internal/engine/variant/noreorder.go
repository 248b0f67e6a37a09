package variant

import (
	"log"

	"FPSpectra/internal/config"
	"FPSpectra/internal/factory"
	"FPSpectra/internal/fptree"
	"FPSpectra/internal/model"
)

func init() {
	factory.RegisterStrategy("noreorder", func(cfg *config.Config) (model.Strategy, error) {
		return NewNoReorder(cfg.Engine.WindowSize, cfg.Engine.MinSupport,
			cfg.Engine.NoReorder.TiltBuckets, nil), nil
	})
}

// NoReorder is the NR strategy: items are inserted in a fixed ordering
// that is never updated, so the tree stays cheap to maintain but its
// compression degrades as actual item popularity drifts away from the
// frozen order. Historical support beyond the literal window is tracked
// in per-item tilted-time counters, exposed for drift diagnostics only;
// mining uses current-window counts.
type NoReorder struct {
	tree       *fptree.Tree
	minSupport float64
	windowSize int

	// order is the immutable ordering snapshot fixed at construction.
	// nil means plain item-identifier order.
	order map[model.Item]int

	fill int // live transactions in the window

	tiltBuckets int
	tilt        map[model.Item][]float64
	sinceShift  int
}

// NewNoReorder creates an NR strategy. order is an optional frozen
// frequency-rank snapshot (e.g. from a warm-up phase); nil selects
// item-identifier order. The snapshot is owned by this instance so
// parallel comparison runs do not interfere.
func NewNoReorder(windowSize int, minSupport float64, tiltBuckets int, order map[model.Item]int) *NoReorder {
	var frozen map[model.Item]int
	if order != nil {
		frozen = make(map[model.Item]int, len(order))
		for item, rank := range order {
			frozen[item] = rank
		}
	}
	return &NoReorder{
		tree:        fptree.New(),
		minSupport:  minSupport,
		windowSize:  windowSize,
		order:       frozen,
		tiltBuckets: tiltBuckets,
		tilt:        make(map[model.Item][]float64),
	}
}

func (s *NoReorder) Name() string { return "noreorder" }

func (s *NoReorder) ManagesEviction() bool { return false }

func (s *NoReorder) ProcessTransaction(txn *model.Transaction) {
	s.tree.Insert(orderItems(txn.Items, s.order), 1)
	s.fill++

	for _, item := range txn.Items {
		buckets, ok := s.tilt[item]
		if !ok {
			buckets = make([]float64, s.tiltBuckets)
			s.tilt[item] = buckets
		}
		buckets[s.tiltBuckets-1]++
	}
	s.sinceShift++
	if s.sinceShift >= s.windowSize {
		s.shiftTilt()
		s.sinceShift = 0
	}
}

func (s *NoReorder) EvictTransaction(txn *model.Transaction) {
	if !s.tree.Remove(orderItems(txn.Items, s.order), 1) {
		log.Printf("noreorder: evicted transaction %d not present in tree, skipping", txn.Seq)
		return
	}
	s.fill--
}

// shiftTilt drops the oldest bucket of every tilted counter and opens a
// fresh one. Counters whose buckets are all empty are discarded.
func (s *NoReorder) shiftTilt() {
	for item, buckets := range s.tilt {
		copy(buckets, buckets[1:])
		buckets[s.tiltBuckets-1] = 0
		empty := true
		for _, c := range buckets {
			if c > 0 {
				empty = false
				break
			}
		}
		if empty {
			delete(s.tilt, item)
		}
	}
}

func (s *NoReorder) Mine() model.PatternSet {
	minCount := s.minSupport * float64(s.fill)
	if minCount < 1 {
		minCount = 1
	}
	patterns, err := s.tree.Mine(minCount)
	if err != nil {
		log.Printf("noreorder: mining failed: %v", err)
		return model.PatternSet{}
	}
	return patterns
}

// NoReorderSnapshot is the diagnostic view of an NR instance.
type NoReorderSnapshot struct {
	WindowFill     int
	NodeCount      int
	Supports       map[model.Item]float64
	TiltedCounters map[model.Item][]float64
}

func (s *NoReorder) Snapshot() any {
	tilt := make(map[model.Item][]float64, len(s.tilt))
	for item, buckets := range s.tilt {
		cp := make([]float64, len(buckets))
		copy(cp, buckets)
		tilt[item] = cp
	}
	return NoReorderSnapshot{
		WindowFill:     s.fill,
		NodeCount:      s.tree.NodeCount(),
		Supports:       s.tree.Supports(),
		TiltedCounters: tilt,
	}
}

func (s *NoReorder) Reset() {
	s.tree.Reset()
	s.fill = 0
	s.sinceShift = 0
	s.tilt = make(map[model.Item][]float64)
}
