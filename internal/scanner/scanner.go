// Package scanner walks the monitored directory tree and produces a fresh
// snapshot of file content hashes.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/telhawk-systems/telhawk-fim/internal/baseline"
)

// hashChunkSize bounds memory use while hashing regardless of file size.
const hashChunkSize = 8192

// Scanner produces baseline snapshots of a directory tree.
type Scanner struct {
	root          string
	excludeHidden bool
}

// New creates a Scanner rooted at dir. When excludeHidden is set, entries
// whose name starts with "." are skipped, directories and files alike.
func New(dir string, excludeHidden bool) *Scanner {
	return &Scanner{root: dir, excludeHidden: excludeHidden}
}

// Snapshot walks the tree and returns a store with one FileState per
// readable regular file. Files that vanish or fail to read mid-scan are
// excluded from the snapshot rather than reported: the scan stays available
// even when individual files are not.
func (s *Scanner) Snapshot() (baseline.Store, error) {
	store := baseline.Store{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return fmt.Errorf("scan root %s: %w", s.root, err)
			}
			// Unreadable subtree: exclude it from this cycle's snapshot.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if s.excludeHidden && hidden(d.Name()) && path != s.root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		hash, err := HashFile(path)
		if err != nil {
			return nil
		}

		store[path] = baseline.FileState{
			Path:  path,
			Hash:  hash,
			MTime: float64(info.ModTime().UnixNano()) / 1e9,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// HashFile returns the SHA-256 hex digest of a file's full content, read in
// fixed-size chunks.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
