package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotKey is the versioned key under which the state blob is
// persisted. Bump the version when the blob shape changes.
const SnapshotKey = "envelopes:state:v1"

// EncodeState serializes the state aggregate to its persisted JSON form.
// Export returns exactly these bytes, so encoding must stay deterministic
// for a given state.
func EncodeState(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a persisted state blob. A malformed blob returns an
// error and never panics; callers recover by resetting to a fresh default
// state.
func DecodeState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Envelopes == nil {
		s.Envelopes = []*Envelope{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Settings.TransactionRetentionDays <= 0 {
		s.Settings.TransactionRetentionDays = DefaultRetentionDays
	}
	return &s, nil
}

// ValidateImport checks that an externally supplied blob has the minimal
// required shape: top-level "envelopes" and "transactions" fields that
// are JSON arrays. Anything else is rejected without mutation.
func ValidateImport(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("parse import: %w", err)
	}
	for _, field := range []string{"envelopes", "transactions"} {
		raw, ok := probe[field]
		if !ok {
			return errors.New("import missing " + field + " array")
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return errors.New("import field " + field + " is not an array")
		}
	}
	return nil
}
