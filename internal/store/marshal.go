package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/roach88/qlbind/internal/ir"
)

// marshalArgs converts formatted arguments to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalArgs(args []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.StringArray(args))
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses the args column back.
func unmarshalArgs(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var args []string
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return args, nil
}

// marshalRecord converts a record to the canonical JSON its id is computed from.
func marshalRecord(record ir.IRObject) (string, error) {
	data, err := ir.MarshalCanonical(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

func decodeMask(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	mask, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode defaults mask: %w", err)
	}
	return mask, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
