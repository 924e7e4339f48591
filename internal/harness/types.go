package harness

import (
	"errors"

	"github.com/roach88/storygen/internal/expand"
	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/story"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Stories are the archived generations in seq order.
	Stories []ir.Generation `json:"stories"`

	// ErrorKind classifies the generation error, if one stopped the run.
	ErrorKind string `json:"error_kind,omitempty"`

	// Err is the generation error itself.
	Err error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Stories: []ir.Generation{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStory records an archived generation.
func (r *Result) AddStory(gen ir.Generation) {
	r.Stories = append(r.Stories, gen)
}

// SetError records the error that stopped generation.
func (r *Result) SetError(err error) {
	r.Err = err
	r.ErrorKind = ErrorKind(err)
}

// Error kinds reported by ErrorKind.
const (
	KindNoEntryPoint      = "no_entry_point"
	KindInvalidEntryPoint = "invalid_entry_point"
	KindPassLimit         = "pass_limit"
	KindUnknownRule       = "unknown_rule"
	KindEmptyRuleName     = "empty_rule_name"
	KindOther             = "other"
)

// ErrorKind classifies a generation error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, story.ErrNoEntryPoint):
		return KindNoEntryPoint
	case errors.Is(err, story.ErrInvalidEntryPoint):
		return KindInvalidEntryPoint
	case errors.Is(err, expand.ErrPassLimit):
		return KindPassLimit
	case errors.Is(err, grammar.ErrUnknownRule):
		return KindUnknownRule
	case errors.Is(err, grammar.ErrEmptyRuleName):
		return KindEmptyRuleName
	default:
		return KindOther
	}
}

func knownErrorKind(kind string) bool {
	switch kind {
	case KindNoEntryPoint, KindInvalidEntryPoint, KindPassLimit, KindUnknownRule, KindEmptyRuleName:
		return true
	}
	return false
}
