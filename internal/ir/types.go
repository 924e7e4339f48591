package ir

import "sort"

// RuleSpec is a named rule with its alternative fragments as produced by a
// grammar source. Name is the user-facing name; it is canonicalized when the
// rule is inserted into a grammar store.
type RuleSpec struct {
	Name         string   `json:"name"`
	Alternatives []string `json:"alternatives"`
}

// GrammarSpec is a loaded grammar: an optional title and entry point plus the
// rules in source order. Rules with the same canonical name are merged on
// insertion, not here.
type GrammarSpec struct {
	Title  string     `json:"title,omitempty"`
	Entry  string     `json:"entry,omitempty"`
	Rules  []RuleSpec `json:"rules"`
	Source string     `json:"source,omitempty"` // file or directory it was loaded from
}

// RuleCount returns the number of rule entries, before merging.
func (g GrammarSpec) RuleCount() int {
	return len(g.Rules)
}

// AlternativeCount returns the total number of fragments across all rules.
func (g GrammarSpec) AlternativeCount() int {
	n := 0
	for _, r := range g.Rules {
		n += len(r.Alternatives)
	}
	return n
}

// Generation is an archived story generation.
//
// A generation with a non-zero Seed can be replayed: expanding Entry against a
// grammar with the same GrammarHash using the same seed yields the same Text.
type Generation struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Title         string `json:"title"`
	Entry         string `json:"entry"`
	Seed          uint64 `json:"seed"`
	GrammarHash   string `json:"grammar_hash"`
	Passes        int    `json:"passes"`
	Substitutions int    `json:"substitutions"`
	Text          string `json:"text"`
	EngineVersion string `json:"engine_version"`
}

// Replayable reports whether the generation was produced with a fixed seed.
func (g Generation) Replayable() bool {
	return g.Seed != 0
}

// RuleTable maps canonical rule names to their alternatives.
// Used for hashing a grammar independent of insertion history.
type RuleTable map[string][]string

// SortedNames returns the canonical rule names in byte order.
func (t RuleTable) SortedNames() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
