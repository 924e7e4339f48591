package archive

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/storygen/internal/ir"
)

// marshalRules converts a rule table to canonical JSON TEXT for storage.
func marshalRules(table ir.RuleTable) (string, error) {
	data, err := ir.MarshalCanonical(table)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(data), nil
}

// unmarshalRules parses stored rule JSON and checks it still hashes to the
// key it was stored under.
func unmarshalRules(data, hash string) (ir.RuleTable, error) {
	var table ir.RuleTable
	if err := json.Unmarshal([]byte(data), &table); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	got, err := ir.GrammarHash(table)
	if err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	if got != hash {
		return nil, fmt.Errorf("unmarshal rules: stored table hashes to %s, want %s", got, hash)
	}
	return table, nil
}
