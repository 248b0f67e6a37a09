package baseline

import (
	"testing"

	"FPSpectra/internal/model"
)

func txnOf(items ...model.Item) *model.Transaction {
	return &model.Transaction{Items: items}
}

func TestHSTreeFlagsOutlier(t *testing.T) {
	det := NewHSTree(25, 6, 16, 42)

	// Two full windows of one dominant shape so the reference profile
	// settles.
	for i := 0; i < 32; i++ {
		det.Observe(txnOf(1, 2, 3))
	}

	normal := det.Observe(txnOf(1, 2, 3))
	outlier := det.Observe(txnOf(50, 51, 52))
	if outlier <= normal {
		t.Errorf("outlier scored %g, normal %g; outlier must score higher", outlier, normal)
	}
	if normal < 0 || normal > 1 || outlier < 0 || outlier > 1 {
		t.Errorf("scores out of [0,1]: normal %g outlier %g", normal, outlier)
	}
}

func TestHSTreeDeterministicForSeed(t *testing.T) {
	a := NewHSTree(10, 5, 8, 7)
	b := NewHSTree(10, 5, 8, 7)
	for i := 0; i < 40; i++ {
		txn := txnOf(model.Item(i%5), model.Item(i%3+10))
		sa := a.Observe(txn)
		sb := b.Observe(txn)
		if sa != sb {
			t.Fatalf("scores diverged at %d: %g vs %g", i, sa, sb)
		}
	}
}

func TestHSTreeResetReplaysIdentically(t *testing.T) {
	det := NewHSTree(10, 5, 8, 7)
	stream := make([]*model.Transaction, 30)
	for i := range stream {
		stream[i] = txnOf(model.Item(i%4), model.Item(i%7+20))
	}

	first := make([]float64, len(stream))
	for i, txn := range stream {
		first[i] = det.Observe(txn)
	}

	det.Reset()
	for i, txn := range stream {
		if got := det.Observe(txn); got != first[i] {
			t.Fatalf("score %d after Reset = %g, want %g", i, got, first[i])
		}
	}
}

func TestHSTreeWarmMatchesObserveState(t *testing.T) {
	observed := NewHSTree(10, 5, 8, 3)
	warmed := NewHSTree(10, 5, 8, 3)
	for i := 0; i < 20; i++ {
		txn := txnOf(model.Item(i % 6))
		observed.Observe(txn)
		warmed.Warm(txn, 19-i)
	}

	probe := txnOf(2)
	if a, b := observed.Observe(probe), warmed.Observe(probe); a != b {
		t.Errorf("post-warm score %g, post-observe score %g; state diverged", b, a)
	}
}

func TestRCFFlagsOutlier(t *testing.T) {
	det := NewRCF(20, 32, 42)

	// Enough of one dominant shape to grow the forest over it.
	for i := 0; i < 40; i++ {
		det.Observe(txnOf(1, 2, 3))
	}

	normal := det.Observe(txnOf(1, 2, 3))
	outlier := det.Observe(txnOf(50, 51, 52))
	if outlier <= normal {
		t.Errorf("outlier scored %g, normal %g; outlier must score higher", outlier, normal)
	}
	if normal < 0 || normal > 1 || outlier < 0 || outlier > 1 {
		t.Errorf("scores out of [0,1]: normal %g outlier %g", normal, outlier)
	}
}

func TestRCFDeterministicForSeed(t *testing.T) {
	a := NewRCF(10, 16, 7)
	b := NewRCF(10, 16, 7)
	for i := 0; i < 60; i++ {
		txn := txnOf(model.Item(i%5), model.Item(i%3+10))
		sa := a.Observe(txn)
		sb := b.Observe(txn)
		if sa != sb {
			t.Fatalf("scores diverged at %d: %g vs %g", i, sa, sb)
		}
	}
}

func TestRCFResetReplaysIdentically(t *testing.T) {
	det := NewRCF(10, 16, 7)
	stream := make([]*model.Transaction, 50)
	for i := range stream {
		stream[i] = txnOf(model.Item(i%4), model.Item(i%7+20))
	}

	first := make([]float64, len(stream))
	for i, txn := range stream {
		first[i] = det.Observe(txn)
	}

	det.Reset()
	for i, txn := range stream {
		if got := det.Observe(txn); got != first[i] {
			t.Fatalf("score %d after Reset = %g, want %g", i, got, first[i])
		}
	}
}

func TestRCFWarmMatchesObserveState(t *testing.T) {
	observed := NewRCF(10, 16, 3)
	warmed := NewRCF(10, 16, 3)
	for i := 0; i < 40; i++ {
		txn := txnOf(model.Item(i % 6))
		observed.Observe(txn)
		warmed.Warm(txn, 39-i)
	}

	probe := txnOf(2)
	if a, b := observed.Observe(probe), warmed.Observe(probe); a != b {
		t.Errorf("post-warm score %g, post-observe score %g; state diverged", b, a)
	}
}

func TestAutoencoderFlagsOutlier(t *testing.T) {
	det := NewAutoencoder(8, 0.1, 42)

	// Train on one recurring shape until reconstruction settles.
	for i := 0; i < 400; i++ {
		det.Observe(txnOf(1, 2, 3))
	}

	normal := det.Observe(txnOf(1, 2, 3))
	outlier := det.Observe(txnOf(50, 51, 52))
	if outlier <= normal {
		t.Errorf("outlier scored %g, normal %g; outlier must score higher", outlier, normal)
	}
	if normal < 0 || normal > 1 || outlier < 0 || outlier > 1 {
		t.Errorf("scores out of [0,1]: normal %g outlier %g", normal, outlier)
	}
}

func TestAutoencoderDeterministicForSeed(t *testing.T) {
	a := NewAutoencoder(8, 0.05, 7)
	b := NewAutoencoder(8, 0.05, 7)
	for i := 0; i < 50; i++ {
		txn := txnOf(model.Item(i%5), model.Item(i%3+10))
		sa := a.Observe(txn)
		sb := b.Observe(txn)
		if sa != sb {
			t.Fatalf("scores diverged at %d: %g vs %g", i, sa, sb)
		}
	}
}

func TestAutoencoderResetReplaysIdentically(t *testing.T) {
	det := NewAutoencoder(8, 0.05, 7)
	stream := make([]*model.Transaction, 40)
	for i := range stream {
		stream[i] = txnOf(model.Item(i%4), model.Item(i%7+20))
	}

	first := make([]float64, len(stream))
	for i, txn := range stream {
		first[i] = det.Observe(txn)
	}

	det.Reset()
	for i, txn := range stream {
		if got := det.Observe(txn); got != first[i] {
			t.Fatalf("score %d after Reset = %g, want %g", i, got, first[i])
		}
	}
}

func TestAutoencoderWarmMatchesObserveState(t *testing.T) {
	observed := NewAutoencoder(8, 0.05, 3)
	warmed := NewAutoencoder(8, 0.05, 3)
	for i := 0; i < 30; i++ {
		txn := txnOf(model.Item(i % 6))
		observed.Observe(txn)
		warmed.Warm(txn, 29-i)
	}

	probe := txnOf(2)
	if a, b := observed.Observe(probe), warmed.Observe(probe); a != b {
		t.Errorf("post-warm score %g, post-observe score %g; state diverged", b, a)
	}
}

func TestItemFreqRareScoresAboveCommon(t *testing.T) {
	det := NewItemFreq(10)
	for i := 0; i < 10; i++ {
		det.Observe(txnOf(1, 2))
	}

	common := det.Observe(txnOf(1, 2))
	rare := det.Observe(txnOf(99))
	if rare <= common {
		t.Errorf("rare item scored %g, common %g; rare must score higher", rare, common)
	}
}

func TestItemFreqForgetsEvictedItems(t *testing.T) {
	det := NewItemFreq(4)
	first := det.Observe(txnOf(7)) // never seen before: size 1, count 1
	if first != 0 {
		t.Fatalf("single-item first window score = %g, want 0", first)
	}

	// Push item 7 fully out of the window.
	for i := 0; i < 8; i++ {
		det.Observe(txnOf(1))
	}
	revisit := det.Observe(txnOf(7))
	// The revisit itself re-admits item 7, so its count is 1 of 4.
	if want := 1 - 0.25; revisit != want {
		t.Errorf("revisit score = %g, want %g after full eviction", revisit, want)
	}
}

func TestItemFreqEmptyTransaction(t *testing.T) {
	det := NewItemFreq(4)
	if got := det.Observe(txnOf()); got != 1 {
		t.Errorf("empty transaction score = %g, want 1", got)
	}
}
