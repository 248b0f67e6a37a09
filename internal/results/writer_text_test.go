package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/eval"
	"FPSpectra/internal/model"
)

func TestTextWriterWritesResult(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewTextWriter(config.TextWriterConfig{RootPath: tmpDir}, time.Minute)
	if err != nil {
		t.Fatalf("NewTextWriter failed: %v", err)
	}

	res := &eval.Result{
		Algorithm:  "twotree",
		Processed:  1000,
		Throughput: 12500,
		PRAUC:      0.91,
		Classification: eval.Classification{
			Precision: 0.8, Recall: 0.75, F1: 0.774, Accuracy: 0.97,
		},
	}
	if err := writer.Write(res, "2026-08-25_10-00-00", "twotree"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, "2026-08-25_10-00-00", "twotree")
	if _, err := os.Stat(filepath.Join(runDir, "metrics.json")); os.IsNotExist(err) {
		t.Fatalf("metrics.json was not created")
	}

	summaryBytes, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	if err != nil {
		t.Fatalf("Failed to read summary.json: %v", err)
	}
	var summary SummaryData
	if err := json.Unmarshal(summaryBytes, &summary); err != nil {
		t.Fatalf("Failed to unmarshal summary.json: %v", err)
	}
	if summary.Algorithm != "twotree" {
		t.Errorf("summary algorithm = '%s', want 'twotree'", summary.Algorithm)
	}
	if summary.Processed != 1000 || summary.PRAUC != 0.91 {
		t.Errorf("summary content mismatch: %+v", summary)
	}
}

func TestTextWriterWritesPatternSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewTextWriter(config.TextWriterConfig{RootPath: tmpDir}, time.Minute)
	if err != nil {
		t.Fatalf("NewTextWriter failed: %v", err)
	}

	dict := model.NewDict()
	a, b := dict.Intern("protocol=TCP"), dict.Intern("dst_port=443")
	ps := make(model.PatternSet)
	ps.Add(model.NewItemset(a, b), 42)
	ps.Add(model.NewItemset(a), 57)

	snap := NewPatternSnapshot("decayhybrid", ps, dict)
	if err := writer.Write(snap, "2026-08-25_10-00-00", "decayhybrid"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "2026-08-25_10-00-00", "decayhybrid", "patterns.json"))
	if err != nil {
		t.Fatalf("Failed to read patterns.json: %v", err)
	}
	var decoded PatternSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal patterns.json: %v", err)
	}
	if len(decoded.Patterns) != 2 {
		t.Fatalf("decoded %d patterns, want 2", len(decoded.Patterns))
	}
	// Descending support order.
	if decoded.Patterns[0].Support != 57 || decoded.Patterns[0].Items[0] != "protocol=TCP" {
		t.Errorf("first pattern = %+v, want protocol=TCP with support 57", decoded.Patterns[0])
	}
}

func TestTextWriterRejectsUnknownPayload(t *testing.T) {
	writer, err := NewTextWriter(config.TextWriterConfig{RootPath: t.TempDir()}, time.Minute)
	if err != nil {
		t.Fatalf("NewTextWriter failed: %v", err)
	}
	if err := writer.Write(42, "ts", "x"); err == nil {
		t.Error("expected an error for an unsupported payload type")
	}
}
