package baseline

import (
	"FPSpectra/internal/model"
)

// ItemFreq scores a transaction by the rarity of its individual items
// over a sliding window, ignoring co-occurrence entirely. It is the
// cheap floor every pattern-based detector must beat.
type ItemFreq struct {
	windowSize int

	counts map[model.Item]int
	queue  [][]model.Item
	head   int
}

// NewItemFreq creates the scorer over a window of the given size.
func NewItemFreq(windowSize int) *ItemFreq {
	if windowSize < 1 {
		windowSize = 1
	}
	return &ItemFreq{
		windowSize: windowSize,
		counts:     make(map[model.Item]int),
	}
}

func (f *ItemFreq) Name() string { return "itemfreq" }

// Observe slides the window forward and returns one minus the mean
// normalized frequency of the transaction's items. All-new items score
// 1, items present in every window slot score 0.
func (f *ItemFreq) Observe(txn *model.Transaction) float64 {
	f.admit(txn.Items)

	if len(txn.Items) == 0 {
		return 1
	}
	size := f.size()
	sum := 0.0
	for _, it := range txn.Items {
		sum += float64(f.counts[it]) / float64(size)
	}
	mean := sum / float64(len(txn.Items))
	if mean > 1 {
		mean = 1
	}
	return 1 - mean
}

// Warm replays a transaction into the window without scoring. The counts
// carry no cadence state, so remaining is unused.
func (f *ItemFreq) Warm(txn *model.Transaction, remaining int) {
	f.admit(txn.Items)
}

func (f *ItemFreq) admit(items []model.Item) {
	kept := make([]model.Item, len(items))
	copy(kept, items)
	for _, it := range kept {
		f.counts[it]++
	}
	f.queue = append(f.queue, kept)

	if f.size() > f.windowSize {
		oldest := f.queue[f.head]
		f.queue[f.head] = nil
		f.head++
		for _, it := range oldest {
			if f.counts[it]--; f.counts[it] == 0 {
				delete(f.counts, it)
			}
		}
		if f.head > len(f.queue)/2 {
			n := copy(f.queue, f.queue[f.head:])
			f.queue = f.queue[:n]
			f.head = 0
		}
	}
}

func (f *ItemFreq) size() int {
	return len(f.queue) - f.head
}

func (f *ItemFreq) Reset() {
	f.counts = make(map[model.Item]int)
	f.queue = nil
	f.head = 0
}
