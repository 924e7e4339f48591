package grammar

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRule is returned when a canonical name is not in the store.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrEmptyRuleName is returned when a name is empty after stripping
	// delimiters and whitespace.
	ErrEmptyRuleName = errors.New("empty rule name")
)

// UnknownRuleError reports a lookup of a rule that does not exist.
type UnknownRuleError struct {
	Name string // canonical name that was requested
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown rule %s", e.Name)
}

// Is makes errors.Is(err, ErrUnknownRule) match.
func (e *UnknownRuleError) Is(target error) bool {
	return target == ErrUnknownRule
}
