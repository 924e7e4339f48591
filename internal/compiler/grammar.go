package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/storygen/internal/ir"
)

// CompileGrammar parses a CUE value into a GrammarSpec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The value is the grammar root:
//
//	title: "Greetings"
//	entry: "start"
//	rule: {
//		start:    "*GREETING*, *NAME*."
//		greeting: ["Hello there", "Hi"]
//		name:     "Alice"
//	}
//
// Each rule is either a single string or a list of strings; a single string
// becomes a one-element collection. title and entry are optional.
func CompileGrammar(v cue.Value) (*ir.GrammarSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.GrammarSpec{}

	var err error
	if spec.Title, err = optionalString(v, "title"); err != nil {
		return nil, err
	}
	if spec.Entry, err = optionalString(v, "entry"); err != nil {
		return nil, err
	}

	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return nil, &CompileError{
			Field:   "rule",
			Message: "at least one rule is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := ruleVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		rule, err := compileRule(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Rules = append(spec.Rules, rule)
	}

	if len(spec.Rules) == 0 {
		return nil, &CompileError{
			Field:   "rule",
			Message: "at least one rule is required",
			Pos:     ruleVal.Pos(),
		}
	}

	return spec, nil
}

// compileRule parses one rule. Supports:
//   - Single string: "fragment"
//   - List of strings: ["a", "b"]
func compileRule(name string, v cue.Value) (ir.RuleSpec, error) {
	rule := ir.RuleSpec{Name: name}

	if s, err := v.String(); err == nil {
		rule.Alternatives = []string{s}
		return rule, nil
	}

	list, err := v.List()
	if err != nil {
		return rule, &CompileError{
			Field:   "rule." + name,
			Message: "must be a string or a list of strings",
			Pos:     v.Pos(),
		}
	}
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return rule, &CompileError{
				Field:   "rule." + name,
				Message: "alternatives must be strings",
				Pos:     list.Value().Pos(),
			}
		}
		rule.Alternatives = append(rule.Alternatives, s)
	}

	if len(rule.Alternatives) == 0 {
		return rule, &CompileError{
			Field:   "rule." + name,
			Message: "at least one alternative is required",
			Pos:     v.Pos(),
		}
	}
	return rule, nil
}

// optionalString reads an optional string field.
func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: "must be a string",
			Pos:     f.Pos(),
		}
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
