package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/eval"
	"FPSpectra/internal/model"
)

// SummaryData holds the headline numbers of one written run.
type SummaryData struct {
	Algorithm     string  `json:"algorithm"`
	Processed     int     `json:"processed"`
	ThroughputTPS float64 `json:"throughput_tps"`
	F1            float64 `json:"f1"`
	PRAUC         float64 `json:"pr_auc"`
	Timestamp     string  `json:"timestamp"`
}

// TextWriter writes evaluation output under rootPath/<timestamp>/<name>/:
// metrics.json for a full result, patterns.json for a pattern snapshot,
// and summary.json alongside the metrics.
type TextWriter struct {
	rootPath string
	interval time.Duration
}

// NewTextWriter creates the root directory if needed.
func NewTextWriter(cfg config.TextWriterConfig, interval time.Duration) (model.Writer, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("text writer requires a root_path")
	}
	if err := os.MkdirAll(cfg.RootPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &TextWriter{rootPath: cfg.RootPath, interval: interval}, nil
}

// GetInterval returns the configured snapshot interval for this writer.
func (w *TextWriter) GetInterval() time.Duration {
	return w.interval
}

// Write serializes one payload into the run directory. Accepted payloads
// are *eval.Result and *PatternSnapshot.
func (w *TextWriter) Write(payload any, timestamp string, name string) error {
	dir := filepath.Join(w.rootPath, timestamp, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	switch p := payload.(type) {
	case *eval.Result:
		if err := writeJSON(filepath.Join(dir, "metrics.json"), p); err != nil {
			return err
		}
		summary := SummaryData{
			Algorithm:     p.Algorithm,
			Processed:     p.Processed,
			ThroughputTPS: p.Throughput,
			F1:            p.Classification.F1,
			PRAUC:         p.PRAUC,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		}
		return writeJSON(filepath.Join(dir, "summary.json"), summary)
	case *PatternSnapshot:
		return writeJSON(filepath.Join(dir, "patterns.json"), p)
	default:
		return fmt.Errorf("invalid payload type for text writer: %T", payload)
	}
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode '%s': %w", path, err)
	}
	return nil
}
