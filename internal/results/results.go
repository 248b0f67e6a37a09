// Package results persists evaluation output through the Writer
// interface: a text writer laying metric and pattern files under a
// timestamped directory, and a ClickHouse writer batch-inserting metric
// rows for the query API.
package results

import (
	"fmt"
	"sort"
	"time"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"
)

// PatternRow is one mined itemset with its item strings resolved.
type PatternRow struct {
	Items   []string `json:"items"`
	Support float64  `json:"support"`
}

// PatternSnapshot is a dump of the mined pattern set of one algorithm,
// readable without the interning dictionary.
type PatternSnapshot struct {
	Algorithm string       `json:"algorithm"`
	Patterns  []PatternRow `json:"patterns"`
}

// NewPatternSnapshot resolves a pattern set against the dictionary,
// ordered by descending support then items for stable output.
func NewPatternSnapshot(algorithm string, ps model.PatternSet, dict *model.Dict) *PatternSnapshot {
	snap := &PatternSnapshot{Algorithm: algorithm}
	for _, pat := range ps {
		row := PatternRow{Support: pat.Support, Items: make([]string, len(pat.Items))}
		for i, it := range pat.Items {
			row.Items[i] = dict.Name(it)
		}
		snap.Patterns = append(snap.Patterns, row)
	}
	sort.Slice(snap.Patterns, func(i, j int) bool {
		a, b := snap.Patterns[i], snap.Patterns[j]
		if a.Support != b.Support {
			return a.Support > b.Support
		}
		return fmt.Sprint(a.Items) < fmt.Sprint(b.Items)
	})
	return snap
}

// NewWriters constructs every enabled writer from the configuration.
func NewWriters(defs []config.WriterDef) ([]model.Writer, error) {
	var writers []model.Writer
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		interval := time.Minute
		if def.SnapshotInterval != "" {
			d, err := time.ParseDuration(def.SnapshotInterval)
			if err != nil {
				return nil, fmt.Errorf("invalid snapshot_interval '%s': %w", def.SnapshotInterval, err)
			}
			interval = d
		}

		switch def.Type {
		case "text":
			w, err := NewTextWriter(def.Text, interval)
			if err != nil {
				return nil, err
			}
			writers = append(writers, w)
		case "clickhouse":
			w, err := NewClickHouseWriter(def.ClickHouse, interval)
			if err != nil {
				return nil, err
			}
			writers = append(writers, w)
		default:
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}
	}
	return writers, nil
}
