package chainlog

import (
	"encoding/json"
	"fmt"
)

// chainField is the record field excluded from canonical serialization,
// since it is derived from the serialized form of the others.
const chainField = "chain_value"

// canonical serializes v with stable key ordering and the chain value
// stripped. Records round-trip through a generic map so that hashing a
// freshly built event and re-hashing a parsed log line produce identical
// bytes.
func canonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serialize record: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("normalize record: %w", err)
	}
	delete(fields, chainField)

	// encoding/json writes map keys in sorted order.
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("canonicalize record: %w", err)
	}
	return out, nil
}
