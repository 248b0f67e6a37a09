package model

// Item is an interned identifier for one discretised "feature=bin"
// attribute value (e.g. "protocol=6" or "flow_duration_bin_3").
// Items are compared and hashed by value.
type Item uint32

// Transaction is one network flow's discretised feature set: a sequence of
// unique items plus the flow's arrival sequence number and ground-truth
// label. Transactions are immutable once built; the sliding-window manager
// owns them for their lifetime in the window.
type Transaction struct {
	Seq   uint64
	Items []Item
	// Label is the ground truth for evaluation: 1 for attack traffic,
	// 0 for benign, -1 when unknown (live capture).
	Label int8
}

// Clone returns a deep copy of the transaction. The window manager stores
// clones so that callers may reuse their item buffers.
func (t *Transaction) Clone() *Transaction {
	items := make([]Item, len(t.Items))
	copy(items, t.Items)
	return &Transaction{Seq: t.Seq, Items: items, Label: t.Label}
}

// Contains reports whether the transaction carries the given item.
func (t *Transaction) Contains(item Item) bool {
	for _, it := range t.Items {
		if it == item {
			return true
		}
	}
	return false
}
