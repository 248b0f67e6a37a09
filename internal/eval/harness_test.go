package eval

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"FPSpectra/internal/checkpoint"
	"FPSpectra/internal/engine/variant"
	"FPSpectra/internal/engine/window"
	"FPSpectra/internal/model"
)

// sliceSource serves a fixed transaction slice, restartable.
type sliceSource struct {
	txns []*model.Transaction
	pos  int
}

func (s *sliceSource) Next() (*model.Transaction, error) {
	if s.pos >= len(s.txns) {
		return nil, io.EOF
	}
	t := s.txns[s.pos]
	s.pos++
	return t, nil
}

func (s *sliceSource) Restart() error { s.pos = 0; return nil }
func (s *sliceSource) Close() error   { return nil }

// testStream produces a mostly-repetitive stream with a rare labeled
// anomaly so pattern rarity scoring has something to find.
func testStream(n int) []*model.Transaction {
	txns := make([]*model.Transaction, n)
	for i := range txns {
		items := []model.Item{1, 2, 3}
		label := int8(0)
		if i%9 == 5 {
			items = []model.Item{40, 41}
			label = 1
		}
		txns[i] = &model.Transaction{Seq: uint64(i), Items: items, Label: label}
	}
	return txns
}

// driftStream switches its dominant itemset halfway through, so the
// mined pattern set changes over time and every score depends on which
// tick it was mined at.
func driftStream(n int) []*model.Transaction {
	txns := make([]*model.Transaction, n)
	for i := range txns {
		items := []model.Item{1, 2, 3}
		if i >= n/2 {
			items = []model.Item{4, 5, 6}
		}
		label := int8(0)
		if i%9 == 5 {
			items = []model.Item{40, 41}
			label = 1
		}
		txns[i] = &model.Transaction{Seq: uint64(i), Items: items, Label: label}
	}
	return txns
}

func newTestDetector(t *testing.T) *PatternDetector {
	t.Helper()
	mgr, err := window.NewManager(8, variant.NewNoReorder(8, 0.4, 3, nil))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return NewPatternDetector(mgr, 4)
}

func TestRunFullStream(t *testing.T) {
	txns := testStream(60)
	h := NewHarness(nil, 0, 0, 0.5)
	h.ProgressEvery = 0

	res, err := h.Run(newTestDetector(t), &sliceSource{txns: txns}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Processed != 60 {
		t.Fatalf("processed %d transactions, want 60", res.Processed)
	}
	if len(res.Scores) != 60 || len(res.Predictions) != 60 || len(res.Labels) != 60 {
		t.Fatalf("result slices misaligned: %d/%d/%d",
			len(res.Scores), len(res.Predictions), len(res.Labels))
	}
	for i, s := range res.Scores {
		if s < 0 || s > 1 {
			t.Errorf("score %d = %g out of [0,1]", i, s)
		}
	}

	// Rare transactions must score strictly above the dominant ones once
	// the window has filled.
	for i := 20; i < 60; i++ {
		if txns[i].Label == 1 && res.Scores[i] <= res.Scores[i-1] {
			t.Errorf("anomaly at %d scored %g, not above preceding normal %g",
				i, res.Scores[i], res.Scores[i-1])
		}
	}
}

func TestRunResumeMatchesUninterruptedRun(t *testing.T) {
	// A drifting stream makes the pattern set time-dependent, and the
	// checkpoint indices deliberately fall at every phase of the mining
	// cadence (mineEvery is 4; ticks 10, 25, 26 and 33 cover all four).
	// A resume that mines at the wrong tick diverges on such a stream.
	txns := driftStream(60)

	ref, err := NewHarness(nil, 0, 0, 0.5).Run(newTestDetector(t), &sliceSource{txns: txns}, false)
	if err != nil {
		t.Fatalf("reference Run failed: %v", err)
	}

	for _, k := range []int{10, 25, 26, 33} {
		// Simulate a run interrupted after k transactions: persist the
		// checkpoint such a run would have left behind.
		store, err := checkpoint.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		state := &progressState{
			Index:       k,
			Scores:      append([]float64(nil), ref.Scores[:k]...),
			Predictions: append([]int8(nil), ref.Predictions[:k]...),
			Labels:      append([]int8(nil), ref.Labels[:k]...),
		}
		for i := 0; i < k; i++ {
			state.LatencyNanos = append(state.LatencyNanos, 1000)
		}
		if err := store.Save("noreorder", state); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		h := NewHarness(store, 10, 0, 0.5)
		h.ProgressEvery = 0
		resumed, err := h.Run(newTestDetector(t), &sliceSource{txns: txns}, true)
		if err != nil {
			t.Fatalf("resumed Run failed at checkpoint %d: %v", k, err)
		}

		if resumed.Processed != ref.Processed {
			t.Fatalf("resumed processed %d, reference %d", resumed.Processed, ref.Processed)
		}
		for i := range ref.Scores {
			if resumed.Scores[i] != ref.Scores[i] {
				t.Fatalf("checkpoint %d: score %d diverged after resume: %g vs %g",
					k, i, resumed.Scores[i], ref.Scores[i])
			}
		}
		if resumed.Classification != ref.Classification {
			t.Errorf("checkpoint %d: classification diverged: %+v vs %+v",
				k, resumed.Classification, ref.Classification)
		}
		if resumed.PRAUC != ref.PRAUC {
			t.Errorf("checkpoint %d: PR-AUC diverged: %g vs %g", k, resumed.PRAUC, ref.PRAUC)
		}
	}
}

func TestRunRecoversFromCorruptCheckpoint(t *testing.T) {
	dir := t.TempDir()
	store, err := checkpoint.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	garbage := filepath.Join(dir, "checkpoint_noreorder.ckpt")
	if err := os.WriteFile(garbage, []byte("not a checkpoint"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	txns := testStream(30)
	h := NewHarness(store, 10, 0, 0.5)
	h.ProgressEvery = 0
	res, err := h.Run(newTestDetector(t), &sliceSource{txns: txns}, true)
	if err != nil {
		t.Fatalf("Run should recover from a corrupt checkpoint, got: %v", err)
	}
	if res.Processed != 30 {
		t.Errorf("processed %d after recovery, want full 30", res.Processed)
	}
}

func TestRunClearsCheckpointOnSuccess(t *testing.T) {
	store, err := checkpoint.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	txns := testStream(30)
	h := NewHarness(store, 5, 0, 0.5)
	h.ProgressEvery = 0
	if _, err := h.Run(newTestDetector(t), &sliceSource{txns: txns}, false); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var out progressState
	if err := store.Load("noreorder", &out); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("checkpoint survived a completed run: %v", err)
	}
}
