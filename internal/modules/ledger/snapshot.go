package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotFile is the session snapshot written under the data directory.
const snapshotFile = "session.msgpack"

// SaveSnapshot serializes the ledger state to the data directory.
// Written on graceful shutdown; the write is atomic (temp file + rename) so
// a crash mid-write never leaves a truncated snapshot behind.
func SaveSnapshot(dataDir string, st State) error {
	data, err := msgpack.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := filepath.Join(dataDir, snapshotFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously saved session snapshot. Returns
// (nil, nil) when no snapshot exists.
func LoadSnapshot(dataDir string) (*State, error) {
	path := filepath.Join(dataDir, snapshotFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var st State
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &st, nil
}
