package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainGrammar = "storygen/grammar/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GrammarHash computes the content hash of a rule table.
//
// Alternative order is part of the hash: a seeded expansion picks by index,
// so two grammars holding the same fragments in a different order do not
// replay identically.
func GrammarHash(table RuleTable) (string, error) {
	canonical, err := MarshalCanonical(table)
	if err != nil {
		return "", fmt.Errorf("GrammarHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGrammar, canonical), nil
}

// MustGrammarHash is like GrammarHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustGrammarHash(table RuleTable) string {
	hash, err := GrammarHash(table)
	if err != nil {
		panic(err)
	}
	return hash
}
