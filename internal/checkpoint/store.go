// Package checkpoint persists evaluation progress so interrupted runs can
// resume without reprocessing. Each algorithm owns one checkpoint file,
// written with the temp-then-rename discipline: a crash mid-write never
// corrupts the previous valid checkpoint. Payloads carry an xxhash
// checksum so torn or tampered files are detected on load instead of
// being decoded into garbage.
package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// ErrNotFound is returned by Load when no checkpoint exists for the name.
var ErrNotFound = errors.New("checkpoint: not found")

// ErrCorrupt is returned by Load when the file fails checksum validation.
var ErrCorrupt = errors.New("checkpoint: corrupt payload")

const checksumSize = 8

// Store is a file-backed checkpoint store keyed by algorithm name.
type Store struct {
	dir string
}

// NewStore creates the checkpoint directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, fmt.Sprintf("checkpoint_%s.ckpt", name))
}

// Save atomically persists the state for the named algorithm, replacing
// any previous checkpoint.
func (s *Store) Save(name string, state any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("failed to encode checkpoint for '%s': %w", name, err)
	}

	payload := buf.Bytes()
	out := make([]byte, checksumSize+len(payload))
	binary.LittleEndian.PutUint64(out, xxhash.Sum64(payload))
	copy(out[checksumSize:], payload)

	tmp, err := os.CreateTemp(s.dir, "checkpoint_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish checkpoint for '%s': %w", name, err)
	}
	return nil
}

// Load reads the named checkpoint into state. Returns ErrNotFound when no
// checkpoint exists and ErrCorrupt when the checksum does not match; both
// are recoverable, the caller restarts from index 0 with a warning.
func (s *Store) Load(name string, state any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read checkpoint for '%s': %w", name, err)
	}
	if len(data) < checksumSize {
		return ErrCorrupt
	}
	want := binary.LittleEndian.Uint64(data)
	payload := data[checksumSize:]
	if xxhash.Sum64(payload) != want {
		return ErrCorrupt
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(state); err != nil {
		return fmt.Errorf("failed to decode checkpoint for '%s': %w", name, err)
	}
	return nil
}

// Clear removes the named checkpoint, if present.
func (s *Store) Clear(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint for '%s': %w", name, err)
	}
	return nil
}

// ClearAll removes every checkpoint in the store.
func (s *Store) ClearAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list checkpoint directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".ckpt" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove '%s': %w", entry.Name(), err)
		}
	}
	return nil
}
