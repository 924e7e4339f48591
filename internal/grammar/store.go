package grammar

import (
	"log/slog"
	"slices"
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/storygen/internal/ir"
)

// Sentinel rule seeded into every store.
const (
	SentinelName        = "*NOTHING*"
	SentinelAlternative = "Define grammar rules"
)

// rule is one canonical name's alternatives.
// alts keeps insertion order so seeded picks are reproducible; index gives
// set semantics.
type rule struct {
	alts  []string
	index map[string]struct{}
}

func newRule() *rule {
	return &rule{index: make(map[string]struct{})}
}

// add inserts fragments not already present and returns how many were new.
// Fragments are stored NFC-normalized, the form canonical JSON hashes and
// archives them in, so fragments differing only in normalization are one
// alternative.
func (r *rule) add(fragments []string) int {
	added := 0
	for _, f := range fragments {
		f = norm.NFC.String(f)
		if _, ok := r.index[f]; ok {
			continue
		}
		r.index[f] = struct{}{}
		r.alts = append(r.alts, f)
		added++
	}
	return added
}

// Store owns the mapping from canonical rule name to alternatives.
type Store struct {
	rules  map[string]*rule
	rand   Rand
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRand injects the random source used by PickAlternative.
// Tests pass a seeded or scripted source for deterministic output.
func WithRand(r Rand) Option {
	return func(s *Store) {
		if r != nil {
			s.rand = r
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store holding only the sentinel rule.
func New(opts ...Option) *Store {
	s := &Store{
		rand:   globalRand{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset replaces every rule with the single sentinel rule. Idempotent.
func (s *Store) Reset() {
	sentinel := newRule()
	sentinel.add([]string{SentinelAlternative})
	s.rules = map[string]*rule{SentinelName: sentinel}
}

// AddRule inserts alternatives under the canonical form of name.
//
// A single fragment is passed as a one-element collection. If the rule exists
// its alternatives are merged (set union); duplicates are no-ops. A rule is
// never created without alternatives. Fragments may contain further canonical
// names, which is how grammars recurse.
func (s *Store) AddRule(name string, alternatives ...string) error {
	canonical, err := Canonical(name)
	if err != nil {
		return err
	}
	if len(alternatives) == 0 {
		return nil
	}

	r, ok := s.rules[canonical]
	if !ok {
		r = newRule()
		s.rules[canonical] = r
	}
	added := r.add(alternatives)
	s.logger.Debug("rule added", "rule", canonical, "new_alternatives", added, "total", len(r.alts))
	return nil
}

// AddSpec inserts every rule of a loaded grammar.
func (s *Store) AddSpec(spec ir.GrammarSpec) error {
	for _, r := range spec.Rules {
		if err := s.AddRule(r.Name, r.Alternatives...); err != nil {
			return err
		}
	}
	return nil
}

// AddTable inserts every rule of a table in name order. Rebuilding a store
// from its own Table yields the same alternatives in the same order.
func (s *Store) AddTable(table ir.RuleTable) error {
	for _, name := range table.SortedNames() {
		if err := s.AddRule(name, table[name]...); err != nil {
			return err
		}
	}
	return nil
}

// IsRule canonicalizes name and reports whether the rule exists.
func (s *Store) IsRule(name string) bool {
	canonical, err := Canonical(name)
	if err != nil {
		return false
	}
	_, ok := s.rules[canonical]
	return ok
}

// Lookup reports whether token is exactly an existing canonical name.
// Unlike IsRule it does not canonicalize: "*verb*" is not "*VERB*".
func (s *Store) Lookup(token string) bool {
	_, ok := s.rules[token]
	return ok
}

// PickAlternative returns one alternative of the named rule, chosen uniformly
// at random. name must already be canonical.
func (s *Store) PickAlternative(name string) (string, error) {
	r, ok := s.rules[name]
	if !ok || len(r.alts) == 0 {
		return "", &UnknownRuleError{Name: name}
	}
	return r.alts[s.rand.IntN(len(r.alts))], nil
}

// Alternatives returns a copy of the named rule's alternatives in insertion
// order, or nil if the rule does not exist. name is canonicalized.
func (s *Store) Alternatives(name string) []string {
	canonical, err := Canonical(name)
	if err != nil {
		return nil
	}
	r, ok := s.rules[canonical]
	if !ok {
		return nil
	}
	return slices.Clone(r.alts)
}

// Names returns all canonical rule names sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of rules, including the sentinel.
func (s *Store) Len() int {
	return len(s.rules)
}

// Table returns a snapshot of the store as a rule table.
func (s *Store) Table() ir.RuleTable {
	table := make(ir.RuleTable, len(s.rules))
	for name, r := range s.rules {
		table[name] = slices.Clone(r.alts)
	}
	return table
}

// Hash returns the content hash of the current rule table.
func (s *Store) Hash() (string, error) {
	return ir.GrammarHash(s.Table())
}
