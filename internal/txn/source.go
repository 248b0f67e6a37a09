package txn

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"FPSpectra/internal/model"
)

// jsonlRecord is one line of an offline transaction file.
type jsonlRecord struct {
	Items []string `json:"items"`
	Label *int8    `json:"label"`
}

// JSONLSource streams labeled transactions from a JSON-lines file, one
// object per line: {"items": ["protocol=TCP", ...], "label": 0}. A
// missing label means unknown (-1). Malformed lines are logged and
// skipped. The source is restartable; the dictionary persists across
// restarts so item identifiers stay stable.
type JSONLSource struct {
	path string
	dict *model.Dict

	file    *os.File
	scanner *bufio.Scanner
	seq     uint64
	line    int
}

const maxLineBytes = 1 << 20

// NewJSONLSource opens the file and prepares it for streaming.
func NewJSONLSource(path string, dict *model.Dict) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction file: %w", err)
	}
	s := &JSONLSource{path: path, dict: dict, file: f}
	s.resetScanner()
	return s, nil
}

func (s *JSONLSource) resetScanner() {
	s.scanner = bufio.NewScanner(s.file)
	s.scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
}

// Next returns the next transaction, or io.EOF when the file is
// exhausted.
func (s *JSONLSource) Next() (*model.Transaction, error) {
	for s.scanner.Scan() {
		s.line++
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Printf("Warning: skipping malformed line %d of %s: %v", s.line, s.path, err)
			continue
		}

		items := make([]model.Item, 0, len(rec.Items))
		seen := make(map[model.Item]struct{}, len(rec.Items))
		for _, name := range rec.Items {
			id := s.dict.Intern(name)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, id)
		}

		label := int8(-1)
		if rec.Label != nil {
			label = *rec.Label
		}

		t := &model.Transaction{Seq: s.seq, Items: items, Label: label}
		s.seq++
		return t, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction file: %w", err)
	}
	return nil, io.EOF
}

// Restart rewinds to the first transaction. Sequence numbers restart at
// zero so a replayed stream is identical to the first pass.
func (s *JSONLSource) Restart() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind transaction file: %w", err)
	}
	s.resetScanner()
	s.seq = 0
	s.line = 0
	return nil
}

// Close releases the underlying file.
func (s *JSONLSource) Close() error {
	return s.file.Close()
}
