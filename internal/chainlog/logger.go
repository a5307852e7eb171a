// Package chainlog implements the tamper-evident event log.
//
// Every event is appended as one JSON line whose chain_value is
// SHA-256(previous chain_value ∥ canonical serialization of the record's
// other fields), with the first record seeded from the empty string.
// Editing or truncating any past record therefore breaks the chain for
// every record after it.
package chainlog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/telhawk-systems/telhawk-fim/internal/models"
)

// tailWindow is how far back the recovery read looks for the last record.
const tailWindow = 4096

// RecoveryPolicy controls what happens when the log tail cannot be parsed
// at startup.
type RecoveryPolicy string

const (
	// RecoveryReset seeds the chain from empty and keeps going. This favors
	// availability over tamper evidence across the corrupted tail.
	RecoveryReset RecoveryPolicy = "reset"

	// RecoveryFail refuses to start on a corrupted tail.
	RecoveryFail RecoveryPolicy = "fail"
)

// ErrCorruptTail reports that the existing log ends in a record that cannot
// be parsed.
var ErrCorruptTail = errors.New("chainlog: corrupt log tail")

// Logger appends events to the chained log. It is not safe for concurrent
// use; only the monitor's poll loop writes the log.
type Logger struct {
	path      string
	file      *os.File
	prevChain string
	log       *slog.Logger
}

// Open recovers the last chain value from the log at path and returns a
// Logger ready to append. A missing or empty log seeds the chain from the
// empty string.
func Open(path string, policy RecoveryPolicy, log *slog.Logger) (*Logger, error) {
	if log == nil {
		log = slog.Default()
	}

	prev, err := lastChainValue(path)
	if err != nil {
		if !errors.Is(err, ErrCorruptTail) {
			return nil, err
		}
		if policy == RecoveryFail {
			return nil, err
		}
		log.Warn("log tail unreadable, resetting chain seed",
			"path", path,
			"policy", string(policy),
		)
		prev = ""
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}

	return &Logger{path: path, file: f, prevChain: prev, log: log}, nil
}

// Append finalizes the event with its chain value and writes it as one
// durable line. A write failure is fatal to the caller's cycle: continuing
// would break chain continuity silently.
func (l *Logger) Append(evt models.FIMEvent) (models.FIMEvent, error) {
	canon, err := canonical(evt)
	if err != nil {
		return models.FIMEvent{}, err
	}
	evt.ChainValue = chain(l.prevChain, canon)

	line, err := json.Marshal(evt)
	if err != nil {
		return models.FIMEvent{}, fmt.Errorf("serialize record: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		return models.FIMEvent{}, fmt.Errorf("append to log %s: %w", l.path, err)
	}

	l.prevChain = evt.ChainValue
	return evt, nil
}

// LastChainValue returns the chain value the next record will link to.
func (l *Logger) LastChainValue() string {
	return l.prevChain
}

// Close releases the underlying log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// chain computes the next chain value from the previous one and the
// record's canonical bytes.
func chain(prev string, canon []byte) string {
	h := sha256.New()
	h.Write([]byte(prev))
	h.Write(canon)
	return hex.EncodeToString(h.Sum(nil))
}

// lastChainValue tail-reads the log and returns the chain value of the last
// record. It reads a bounded window rather than scanning the whole file.
func lastChainValue(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat log %s: %w", path, err)
	}
	if info.Size() == 0 {
		return "", nil
	}

	offset := info.Size() - tailWindow
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek log %s: %w", path, err)
	}

	buf, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read log tail %s: %w", path, err)
	}

	lines := bytes.Split(buf, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		var record struct {
			ChainValue string `json:"chain_value"`
		}
		if err := json.Unmarshal(line, &record); err != nil || record.ChainValue == "" {
			return "", ErrCorruptTail
		}
		return record.ChainValue, nil
	}
	// Only blank lines in the window: treat as an empty log.
	return "", nil
}
