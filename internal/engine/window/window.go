// Package window owns the bounded FIFO of the most recent transactions
// and drives insert/evict calls into a maintenance strategy.
package window

import (
	"fmt"

	"FPSpectra/internal/model"
)

// Rebuilder is implemented by strategies that occasionally need the full
// window contents to reorganise their tree (partial-rebuild). The manager
// checks for a pending rebuild after each advance.
type Rebuilder interface {
	NeedsRebuild() bool
	Rebuild(window []*model.Transaction)
}

// Manager maintains a sliding window of at most N transactions over a
// single maintenance strategy. For strategies that expire data on their
// own (two-tree, decay-hybrid) the manager tracks only the logical size
// and retains nothing.
//
// Within one Advance call the incoming transaction is always inserted
// before the outgoing one is evicted (insert-then-evict). The transient
// window may therefore briefly hold N+1 transactions' worth of counts;
// the order is fixed here so every strategy sees the same discipline.
type Manager struct {
	capacity int
	strategy model.Strategy

	queue []*model.Transaction
	head  int
	size  int // logical size for self-evicting strategies
}

// NewManager creates a window manager over the given strategy.
// capacity must be positive.
func NewManager(capacity int, strategy model.Strategy) (*Manager, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window: capacity must be positive, got %d", capacity)
	}
	return &Manager{capacity: capacity, strategy: strategy}, nil
}

// Advance appends one transaction as logically current. If the window is
// at capacity the oldest transaction is evicted (strict FIFO) after the
// insert. Exactly one transaction enters per call and, once at capacity,
// exactly one leaves.
func (m *Manager) Advance(txn *model.Transaction) {
	kept := txn.Clone()
	m.strategy.ProcessTransaction(kept)

	if m.strategy.ManagesEviction() {
		if m.size < m.capacity {
			m.size++
		}
	} else {
		m.queue = append(m.queue, kept)
		if m.length() > m.capacity {
			oldest := m.popOldest()
			m.strategy.EvictTransaction(oldest)
		}
	}

	if r, ok := m.strategy.(Rebuilder); ok && r.NeedsRebuild() {
		r.Rebuild(m.Contents())
	}
}

// Size returns the current logical window size, never above capacity.
func (m *Manager) Size() int {
	if m.strategy.ManagesEviction() {
		return m.size
	}
	return m.length()
}

// Capacity returns the configured maximum window size.
func (m *Manager) Capacity() int {
	return m.capacity
}

// Strategy returns the maintenance strategy the manager drives.
func (m *Manager) Strategy() model.Strategy {
	return m.strategy
}

// Contents enumerates the retained window, oldest first, for rebuild use.
// The slice is a copy; the transactions are not.
func (m *Manager) Contents() []*model.Transaction {
	out := make([]*model.Transaction, m.length())
	copy(out, m.queue[m.head:])
	return out
}

// Reset clears the window and the underlying strategy.
func (m *Manager) Reset() {
	m.queue = nil
	m.head = 0
	m.size = 0
	m.strategy.Reset()
}

func (m *Manager) length() int {
	return len(m.queue) - m.head
}

func (m *Manager) popOldest() *model.Transaction {
	oldest := m.queue[m.head]
	m.queue[m.head] = nil
	m.head++
	if m.head > len(m.queue)/2 {
		n := copy(m.queue, m.queue[m.head:])
		m.queue = m.queue[:n]
		m.head = 0
	}
	return oldest
}
