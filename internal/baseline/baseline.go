// Package baseline holds the last known-good snapshot of the monitored tree
// and its persisted form on disk.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileState is the last known content fingerprint of one file.
type FileState struct {
	Path  string
	Hash  string
	MTime float64 // modification time, seconds since epoch
}

// Store maps file path to its last observed state. A Store is owned by a
// single goroutine; the monitor swaps whole snapshots rather than mutating
// entries in place.
type Store map[string]FileState

// persistedState is the on-disk shape: a JSON object path -> {hash, mtime}.
type persistedState struct {
	Hash  string  `json:"hash"`
	MTime float64 `json:"mtime"`
}

// Load reads a persisted baseline. A missing file is not an error; it
// returns an empty store and found=false so the caller can build a fresh
// baseline instead.
func Load(path string) (Store, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, false, nil
		}
		return nil, false, fmt.Errorf("read baseline %s: %w", path, err)
	}

	var persisted map[string]persistedState
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return nil, false, fmt.Errorf("parse baseline %s: %w", path, err)
	}

	store := make(Store, len(persisted))
	for p, entry := range persisted {
		store[p] = FileState{Path: p, Hash: entry.Hash, MTime: entry.MTime}
	}
	return store, true, nil
}

// Save persists the store. The write goes through a temp file and rename so
// a crash mid-write cannot leave a truncated baseline behind.
func Save(store Store, path string) error {
	persisted := make(map[string]persistedState, len(store))
	for p, fs := range store {
		persisted[p] = persistedState{Hash: fs.Hash, MTime: fs.MTime}
	}

	raw, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize baseline: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write baseline %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace baseline %s: %w", path, err)
	}
	return nil
}
