package model

import (
	"encoding/binary"
	"slices"
)

// Itemset is a set of items with ascending item order. Itemsets are the
// keys of mining output; support is order-irrelevant.
type Itemset []Item

// NewItemset copies and sorts the given items into canonical form.
func NewItemset(items ...Item) Itemset {
	set := make(Itemset, len(items))
	copy(set, items)
	slices.Sort(set)
	return set
}

// Key encodes the itemset as a compact string usable as a map key.
// Items are encoded big-endian in canonical (ascending) order.
func (s Itemset) Key() string {
	buf := make([]byte, 4*len(s))
	for i, item := range s {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(item))
	}
	return string(buf)
}

// ItemsetFromKey decodes a key produced by Key.
func ItemsetFromKey(key string) Itemset {
	set := make(Itemset, len(key)/4)
	for i := range set {
		set[i] = Item(binary.BigEndian.Uint32([]byte(key[4*i : 4*i+4])))
	}
	return set
}

// SubsetOf reports whether every item of s appears in the transaction.
func (s Itemset) SubsetOf(txn *Transaction) bool {
	for _, item := range s {
		if !txn.Contains(item) {
			return false
		}
	}
	return true
}

// Pattern is one mined frequent itemset with its support count. Supports
// are float64 because the decay-hybrid variant operates on continuous
// counts; the other variants produce whole numbers.
type Pattern struct {
	Items   Itemset
	Support float64
}

// PatternSet maps canonical itemset keys to mined patterns. A pattern set
// is regenerated per mining call and never mutated by consumers.
type PatternSet map[string]Pattern

// Add records a pattern, overwriting any previous support for the itemset.
func (p PatternSet) Add(items Itemset, support float64) {
	p[items.Key()] = Pattern{Items: items, Support: support}
}

// MaxSupport returns the largest support in the set, or 0 if empty.
func (p PatternSet) MaxSupport() float64 {
	best := 0.0
	for _, pat := range p {
		if pat.Support > best {
			best = pat.Support
		}
	}
	return best
}
