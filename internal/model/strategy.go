package model

// Strategy defines a single sliding-window FP-tree maintenance policy
// (no-reorder, partial-rebuild, two-tree, decay-hybrid). This is the
// interface the window manager drives.
type Strategy interface {
	// ProcessTransaction folds one transaction into the tree. The strategy
	// decides the item ordering before insertion.
	ProcessTransaction(txn *Transaction)

	// EvictTransaction removes a previously inserted transaction from the
	// tree. Called by the window manager only when ManagesEviction is
	// false. A transaction whose path is absent is logged and skipped.
	EvictTransaction(txn *Transaction)

	// ManagesEviction reports whether the strategy expires old data on its
	// own (two-tree swaps, decay) so the window manager must not retain
	// transactions or issue explicit evictions.
	ManagesEviction() bool

	// Mine returns the frequent itemsets of the current window that meet
	// the configured minimum support.
	Mine() PatternSet

	// Snapshot returns a read-only diagnostic view of the strategy's
	// internal state (tilted counters, rank drift, tree sizes).
	Snapshot() any

	// Reset clears all state, preparing for a fresh stream.
	Reset()

	Name() string
}

// Detector is the unit of comparison in the evaluation harness: anything
// that can observe a transaction stream and score each transaction for
// anomaly. FP-tree strategies participate through a pattern-rarity
// detector wrapper; baselines implement Detector directly.
type Detector interface {
	// Observe folds one transaction into the detector's state and returns
	// the anomaly score assigned to it. Higher scores are more anomalous.
	Observe(txn *Transaction) float64

	// Reset clears all state.
	Reset()

	Name() string
}
