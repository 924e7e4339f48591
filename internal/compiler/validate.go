package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyRuleName      = "E101" // rule name empty after canonicalization
	ErrNoAlternatives     = "E102" // rule has no alternatives
	ErrWhitespaceName     = "E103" // rule name contains whitespace and can never match
	ErrUndefinedEntry     = "E104" // entry point does not name a rule
	ErrSentinelEntry      = "E105" // entry point is the sentinel rule
	ErrNonTerminatingRule = "E106" // rule can never finish expanding
)

// ValidationError represents a grammar validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled grammar.
// Returns all errors found (does not fail-fast).
//
// Rules are checked after merging by canonical name, the same way a store
// would hold them. A rule that can never finish expanding is an error here
// even though the engine itself would simply not return.
func Validate(spec ir.GrammarSpec) []ValidationError {
	var errs []ValidationError

	for _, r := range spec.Rules {
		field := "rule." + r.Name
		if _, err := grammar.Canonical(r.Name); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "rule name is empty",
				Code:    ErrEmptyRuleName,
			})
			continue
		}
		if strings.ContainsFunc(strings.Trim(strings.TrimSpace(r.Name), grammar.Delimiter), isSpace) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "rule name contains whitespace; expansion splits on whitespace so it can never match",
				Code:    ErrWhitespaceName,
			})
		}
		if len(r.Alternatives) == 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "at least one alternative is required",
				Code:    ErrNoAlternatives,
			})
		}
	}

	table := BuildTable(spec)

	if spec.Entry != "" {
		entry, err := grammar.Canonical(spec.Entry)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Field: "entry", Message: "entry point is empty", Code: ErrUndefinedEntry})
		case entry == grammar.SentinelName:
			errs = append(errs, ValidationError{Field: "entry", Message: "the sentinel rule cannot be an entry point", Code: ErrSentinelEntry})
		default:
			if _, ok := table[entry]; !ok {
				errs = append(errs, ValidationError{
					Field:   "entry",
					Message: fmt.Sprintf("entry point %s does not name a rule", entry),
					Code:    ErrUndefinedEntry,
				})
			}
		}
	}

	for _, name := range NonTerminating(table) {
		errs = append(errs, ValidationError{
			Field:   "rule." + name,
			Message: "every alternative leads back into a rule that cannot finish; expansion would never return",
			Code:    ErrNonTerminatingRule,
		})
	}

	return errs
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// BuildTable merges a spec's rules by canonical name, exactly as inserting
// them into a fresh store would, and returns the resulting table. Rules with
// invalid names are skipped; the sentinel is included.
func BuildTable(spec ir.GrammarSpec) ir.RuleTable {
	store := grammar.New()
	for _, r := range spec.Rules {
		_ = store.AddRule(r.Name, r.Alternatives...)
	}
	return store.Table()
}
