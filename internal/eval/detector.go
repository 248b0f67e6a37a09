package eval

import (
	"FPSpectra/internal/engine/window"
	"FPSpectra/internal/model"
)

// PatternDetector adapts a sliding-window maintenance strategy into an
// anomaly detector: each transaction advances the window, mining runs
// every mineEvery transactions (mining dominates per-transaction cost),
// and the anomaly score is the transaction's itemset rarity — one minus
// the normalized support of its best-covered frequent sub-itemset. A
// transaction covered by no frequent itemset scores 1.
type PatternDetector struct {
	mgr       *window.Manager
	mineEvery int

	patterns  model.PatternSet
	sinceMine int
	primed    bool // first mining tick has passed
}

// NewPatternDetector wraps a window manager. mineEvery must be >= 1.
func NewPatternDetector(mgr *window.Manager, mineEvery int) *PatternDetector {
	if mineEvery < 1 {
		mineEvery = 1
	}
	return &PatternDetector{mgr: mgr, mineEvery: mineEvery}
}

func (d *PatternDetector) Name() string {
	return d.mgr.Strategy().Name()
}

func (d *PatternDetector) Observe(txn *model.Transaction) float64 {
	d.mgr.Advance(txn)

	d.sinceMine++
	if !d.primed || d.sinceMine >= d.mineEvery {
		d.patterns = d.mgr.Strategy().Mine()
		d.primed = true
		d.sinceMine = 0
	}
	return d.score(txn)
}

// Warm replays a transaction into the window without scoring, used when
// resuming from a checkpoint. The mining cadence is replayed exactly as
// Observe would run it, but only the last mining tick before the
// checkpoint actually mines: remaining is the number of replay
// transactions still to come, and a mining tick with fewer than mineEvery
// transactions left is the one whose pattern set is live at the
// checkpoint index. Everything Observe scores against afterwards is then
// identical to the uninterrupted run's state.
func (d *PatternDetector) Warm(txn *model.Transaction, remaining int) {
	d.mgr.Advance(txn)

	d.sinceMine++
	if !d.primed || d.sinceMine >= d.mineEvery {
		if remaining < d.mineEvery {
			d.patterns = d.mgr.Strategy().Mine()
		}
		d.primed = true
		d.sinceMine = 0
	}
}

func (d *PatternDetector) score(txn *model.Transaction) float64 {
	best := 0.0
	for _, pat := range d.patterns {
		if pat.Support > best && pat.Items.SubsetOf(txn) {
			best = pat.Support
		}
	}
	if best == 0 {
		return 1.0
	}
	size := d.mgr.Size()
	if size < 1 {
		size = 1
	}
	score := 1.0 - best/float64(size)
	if score < 0 {
		return 0
	}
	return score
}

// Patterns exposes the most recently mined itemsets for interpretability
// tooling. The returned set must not be mutated.
func (d *PatternDetector) Patterns() model.PatternSet {
	return d.patterns
}

// Strategy returns the wrapped maintenance strategy.
func (d *PatternDetector) Strategy() model.Strategy {
	return d.mgr.Strategy()
}

func (d *PatternDetector) Reset() {
	d.mgr.Reset()
	d.patterns = nil
	d.sinceMine = 0
	d.primed = false
}
