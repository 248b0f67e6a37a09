package variant

import (
	"math"
	"testing"

	"FPSpectra/internal/engine/window"
	"FPSpectra/internal/model"
)

func makeTxn(seq uint64, items ...model.Item) *model.Transaction {
	return &model.Transaction{Seq: seq, Items: items}
}

func TestOrderItemsFrozenSnapshot(t *testing.T) {
	rank := map[model.Item]int{3: 0, 1: 1, 2: 2}
	got := orderItems([]model.Item{1, 2, 3, 7, 5}, rank)
	want := []model.Item{3, 1, 2, 5, 7} // ranked first, then unranked by id
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("orderItems = %v, want %v", got, want)
		}
	}
}

func TestNoReorderSlidingSupports(t *testing.T) {
	nr := NewNoReorder(3, 0.1, 4, nil)
	mgr, err := window.NewManager(3, nr)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// Six transactions through a window of three: after the last advance
	// only transactions 3,4,5 are live.
	stream := [][]model.Item{
		{0, 1},
		{0, 2},
		{1, 2},
		{0, 1, 2},
		{0},
		{1},
	}
	for i, items := range stream {
		mgr.Advance(makeTxn(uint64(i), items...))
	}

	snap := nr.Snapshot().(NoReorderSnapshot)
	want := map[model.Item]float64{0: 2, 1: 2, 2: 1}
	for item, support := range want {
		if got := snap.Supports[item]; got != support {
			t.Errorf("item %d: support = %g, want %g", item, got, support)
		}
	}
	if snap.WindowFill != 3 {
		t.Errorf("window fill = %d, want 3", snap.WindowFill)
	}
}

func TestNoReorderTiltedCountersShift(t *testing.T) {
	// Window size 2, so the tilt buckets shift every 2 insertions.
	nr := NewNoReorder(2, 0.1, 3, nil)
	nr.ProcessTransaction(makeTxn(0, 5))
	nr.ProcessTransaction(makeTxn(1, 5)) // boundary: shift after this insert

	snap := nr.Snapshot().(NoReorderSnapshot)
	buckets := snap.TiltedCounters[5]
	if len(buckets) != 3 {
		t.Fatalf("tilt length = %d, want 3", len(buckets))
	}
	// Both occurrences landed in the current bucket, which the boundary
	// shift then moved one slot toward history.
	want := []float64{0, 2, 0}
	for i := range want {
		if buckets[i] != want[i] {
			t.Fatalf("tilt buckets = %v, want %v", buckets, want)
		}
	}

	nr.ProcessTransaction(makeTxn(2, 5))
	snap = nr.Snapshot().(NoReorderSnapshot)
	buckets = snap.TiltedCounters[5]
	if buckets[2] != 1 || buckets[1] != 2 {
		t.Errorf("tilt buckets after new occurrence = %v, want [0 2 1]", buckets)
	}
}

func TestNoReorderMiningMatchesReference(t *testing.T) {
	nr := NewNoReorder(10, 0.4, 4, nil)
	mgr, _ := window.NewManager(10, nr)
	for i, items := range [][]model.Item{
		{0, 1, 2},
		{0, 1},
		{0, 2},
		{1, 2},
		{0, 1, 2},
	} {
		mgr.Advance(makeTxn(uint64(i), items...))
	}

	patterns := nr.Mine()
	want := map[string]float64{
		model.NewItemset(0).Key():       4,
		model.NewItemset(1).Key():       4,
		model.NewItemset(2).Key():       4,
		model.NewItemset(0, 1).Key():    3,
		model.NewItemset(0, 2).Key():    3,
		model.NewItemset(1, 2).Key():    3,
		model.NewItemset(0, 1, 2).Key(): 2,
	}
	if len(patterns) != len(want) {
		t.Errorf("mined %d itemsets, want %d", len(patterns), len(want))
	}
	for key, support := range want {
		if pat, ok := patterns[key]; !ok || pat.Support != support {
			t.Errorf("itemset %v: got %+v, want support %g", model.ItemsetFromKey(key), pat, support)
		}
	}
}

func TestPartialRebuildPreservesSupports(t *testing.T) {
	pr := NewPartialRebuild(8, 0.1, 0.05) // low threshold so drift triggers quickly
	mgr, _ := window.NewManager(8, pr)

	// First phase favours item 0, second phase favours item 9, forcing
	// the frequency ranks to invert.
	seq := uint64(0)
	for i := 0; i < 8; i++ {
		mgr.Advance(makeTxn(seq, 0, 1, model.Item(2+i%3)))
		seq++
	}
	for i := 0; i < 8; i++ {
		mgr.Advance(makeTxn(seq, 9, 8, model.Item(2+i%3)))
		seq++
	}

	snap := pr.Snapshot().(PartialRebuildSnapshot)
	if snap.Rebuilds == 0 {
		t.Fatal("rank inversion did not trigger any rebuild")
	}

	// Whatever the internal ordering, the header supports must match the
	// exact per-item counts of the live window (last 8 transactions).
	want := map[model.Item]float64{9: 8, 8: 8}
	for i := 0; i < 8; i++ {
		want[model.Item(2+i%3)]++
	}
	for item, support := range want {
		if got := snap.Supports[item]; got != support {
			t.Errorf("item %d: support = %g after rebuilds, want %g", item, got, support)
		}
	}
	if got := snap.Supports[0]; got != 0 {
		t.Errorf("item 0 still has support %g after leaving the window", got)
	}
}

func TestPartialRebuildDriftCheckedOnCadence(t *testing.T) {
	// Window 40 puts the drift check on an every-4-insertions cadence.
	// Rank inversion must still trigger a rebuild, and the tree supports
	// must stay exact ground truth regardless of which tick detected it.
	pr := NewPartialRebuild(40, 0.1, 0.05)
	if pr.checkEvery != 4 {
		t.Fatalf("checkEvery = %d for window 40, want 4", pr.checkEvery)
	}
	mgr, _ := window.NewManager(40, pr)

	seq := uint64(0)
	for i := 0; i < 40; i++ {
		mgr.Advance(makeTxn(seq, 0, 1, model.Item(2+i%3)))
		seq++
	}
	for i := 0; i < 40; i++ {
		mgr.Advance(makeTxn(seq, 9, 8, model.Item(2+i%3)))
		seq++
	}

	snap := pr.Snapshot().(PartialRebuildSnapshot)
	if snap.Rebuilds == 0 {
		t.Fatal("rank inversion did not trigger any rebuild on the check cadence")
	}
	want := map[model.Item]float64{9: 40, 8: 40, 2: 14, 3: 13, 4: 13}
	for item, support := range want {
		if got := snap.Supports[item]; got != support {
			t.Errorf("item %d: support = %g, want %g", item, got, support)
		}
	}
	if got := snap.Supports[0]; got != 0 {
		t.Errorf("item 0 still has support %g after leaving the window", got)
	}
}

func TestPartialRebuildMiningAgreesWithNoReorder(t *testing.T) {
	// Same stream, same window: PR's reordered tree and NR's frozen tree
	// must mine identical itemsets and counts.
	pr := NewPartialRebuild(6, 0.3, 0.05)
	nr := NewNoReorder(6, 0.3, 4, nil)
	prMgr, _ := window.NewManager(6, pr)
	nrMgr, _ := window.NewManager(6, nr)

	stream := [][]model.Item{
		{0, 1, 2}, {3, 4}, {0, 3}, {1, 2, 4}, {0, 1}, {2, 3, 4},
		{4, 3}, {4, 2, 0}, {4, 1}, {4, 0},
	}
	for i, items := range stream {
		prMgr.Advance(makeTxn(uint64(i), items...))
		nrMgr.Advance(makeTxn(uint64(i), items...))
	}

	prPatterns := pr.Mine()
	nrPatterns := nr.Mine()
	if len(prPatterns) != len(nrPatterns) {
		t.Fatalf("PR mined %d itemsets, NR mined %d", len(prPatterns), len(nrPatterns))
	}
	for key, pat := range nrPatterns {
		got, ok := prPatterns[key]
		if !ok {
			t.Errorf("PR missing itemset %v", pat.Items)
			continue
		}
		if got.Support != pat.Support {
			t.Errorf("itemset %v: PR support %g, NR support %g", pat.Items, got.Support, pat.Support)
		}
	}
}

func TestTwoTreeSwapExpiresOldHalf(t *testing.T) {
	tt := NewTwoTree(3, 0.1)
	for seq := uint64(0); seq < 9; seq++ {
		tt.ProcessTransaction(makeTxn(seq, model.Item(seq/3))) // items 0,1,2 per half
	}
	snap := tt.Snapshot().(TwoTreeSnapshot)
	if snap.Swaps != 3 {
		t.Errorf("swaps = %d, want 3", snap.Swaps)
	}
	// Item 0 lived in the first half only; two swaps later it is gone.
	if got := tt.ItemSupport(0); got != 0 {
		t.Errorf("support(0) = %g, want 0 after its half expired", got)
	}
	if got := tt.ItemSupport(2); got != 3 {
		t.Errorf("support(2) = %g, want 3", got)
	}
}

func TestTwoTreeStalenessBound(t *testing.T) {
	// The discrepancy between TT's reported support and the true
	// full-window support is bounded by the half-window size.
	const half = 5
	const full = 2 * half
	tt := NewTwoTree(half, 0.01)

	var windowed []model.Item // item per transaction, true window = last `full`
	for seq := uint64(0); seq < 40; seq++ {
		item := model.Item(seq % 3)
		tt.ProcessTransaction(makeTxn(seq, item))
		windowed = append(windowed, item)

		for candidate := model.Item(0); candidate < 3; candidate++ {
			truth := 0.0
			start := len(windowed) - full
			if start < 0 {
				start = 0
			}
			for _, it := range windowed[start:] {
				if it == candidate {
					truth++
				}
			}
			got := tt.ItemSupport(candidate)
			if diff := math.Abs(got - truth); diff > half {
				t.Fatalf("after %d transactions item %d: TT support %g vs true %g, discrepancy %g > half window %d",
					seq+1, candidate, got, truth, diff, half)
			}
		}
	}
}

func TestDecayHybridMonotonicDecay(t *testing.T) {
	dh := NewDecayHybrid(0.01, 0.5, 1e-4)
	dh.ProcessTransaction(makeTxn(0, 7))

	prev := dh.ItemSupport(7)
	if prev != 1 {
		t.Fatalf("support(7) = %g right after insertion, want 1", prev)
	}
	for seq := uint64(1); seq < 32; seq++ {
		dh.ProcessTransaction(makeTxn(seq, 3)) // item 7 never recurs
		cur := dh.ItemSupport(7)
		if cur == 0 {
			// Pruned below epsilon; it must never come back.
			for rest := seq + 1; rest < seq+4; rest++ {
				dh.ProcessTransaction(makeTxn(rest, 3))
				if dh.ItemSupport(7) != 0 {
					t.Fatal("pruned item reappeared without a new occurrence")
				}
			}
			return
		}
		if cur >= prev {
			t.Fatalf("support(7) did not strictly decrease: %g -> %g", prev, cur)
		}
		prev = cur
	}
	t.Fatal("item 7 was never pruned despite decaying far below epsilon")
}

func TestDecayHybridRecurringItemDominates(t *testing.T) {
	dh := NewDecayHybrid(0.2, 0.9, 1e-6)
	for seq := uint64(0); seq < 50; seq++ {
		items := []model.Item{0}
		if seq%10 == 0 {
			items = append(items, 1)
		}
		dh.ProcessTransaction(makeTxn(seq, items...))
	}
	if s0, s1 := dh.ItemSupport(0), dh.ItemSupport(1); s0 <= s1 {
		t.Errorf("recurring item support %g should exceed rare item support %g", s0, s1)
	}

	patterns := dh.Mine()
	if _, ok := patterns[model.NewItemset(0).Key()]; !ok {
		t.Error("recurring item missing from mined patterns")
	}
}
