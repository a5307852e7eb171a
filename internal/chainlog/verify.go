package chainlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyError reports the first record whose chain value does not match the
// recomputed chain.
type VerifyError struct {
	Record int // 1-based record number in the log
	Reason string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("chainlog: record %d: %s", e.Record, e.Reason)
}

// Verify re-walks the whole log from the empty seed, recomputing every chain
// value. It returns the number of valid records, and a *VerifyError if any
// record was mutated, reordered, or truncated mid-line.
func Verify(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	prev := ""
	record := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		record++

		var fields map[string]interface{}
		if err := json.Unmarshal(line, &fields); err != nil {
			return record - 1, &VerifyError{Record: record, Reason: "unparseable record"}
		}
		stored, _ := fields[chainField].(string)
		if stored == "" {
			return record - 1, &VerifyError{Record: record, Reason: "missing chain value"}
		}

		canon, err := canonical(fields)
		if err != nil {
			return record - 1, &VerifyError{Record: record, Reason: err.Error()}
		}
		if want := chain(prev, canon); stored != want {
			return record - 1, &VerifyError{Record: record, Reason: "chain value mismatch"}
		}
		prev = stored
	}
	if err := sc.Err(); err != nil {
		return record, fmt.Errorf("read log %s: %w", path, err)
	}
	return record, nil
}
