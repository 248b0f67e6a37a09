package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type progress struct {
	Index  int
	Scores []float64
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	saved := progress{Index: 1234, Scores: []float64{0.1, 0.9, 0.5}}
	if err := store.Save("noreorder", saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var loaded progress
	if err := store.Load("noreorder", &loaded); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Index != saved.Index || len(loaded.Scores) != len(saved.Scores) {
		t.Fatalf("loaded %+v, want %+v", loaded, saved)
	}
	for i := range saved.Scores {
		if loaded.Scores[i] != saved.Scores[i] {
			t.Errorf("score %d = %g, want %g", i, loaded.Scores[i], saved.Scores[i])
		}
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	var out progress
	if err := store.Load("nothing", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load of missing checkpoint returned %v, want ErrNotFound", err)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	store := newTestStore(t)
	for idx := 0; idx < 5; idx++ {
		if err := store.Save("twotree", progress{Index: idx}); err != nil {
			t.Fatalf("Save %d failed: %v", idx, err)
		}
	}
	var loaded progress
	if err := store.Load("twotree", &loaded); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Index != 4 {
		t.Errorf("loaded index %d, want 4 (latest save)", loaded.Index)
	}

	// No temp files may survive a successful save.
	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("stale temp file left behind: %s", entry.Name())
		}
	}
}

func TestLoadRejectsCorruptPayload(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("decayhybrid", progress{Index: 7}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Flip a payload byte to simulate a torn write.
	path := store.path("decayhybrid")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var out progress
	if err := store.Load("decayhybrid", &out); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load of corrupted checkpoint returned %v, want ErrCorrupt", err)
	}
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.path("partial"), []byte{0x01, 0x02}, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	var out progress
	if err := store.Load("partial", &out); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load of truncated checkpoint returned %v, want ErrCorrupt", err)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("gone", progress{Index: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear("gone"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	var out progress
	if err := store.Load("gone", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Clear returned %v, want ErrNotFound", err)
	}
	// Clearing again is not an error.
	if err := store.Clear("gone"); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}
