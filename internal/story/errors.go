package story

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntryPoint is returned by Generate before an entry point is set.
	ErrNoEntryPoint = errors.New("no entry point established")

	// ErrInvalidEntryPoint is returned by SetEntryPoint for a name that is
	// not a rule.
	ErrInvalidEntryPoint = errors.New("invalid entry point")
)

// InvalidEntryPointError names the rejected entry point.
type InvalidEntryPointError struct {
	Name string
}

func (e *InvalidEntryPointError) Error() string {
	return fmt.Sprintf("rule %s does not exist in grammar", e.Name)
}

// Is makes errors.Is(err, ErrInvalidEntryPoint) match.
func (e *InvalidEntryPointError) Is(target error) bool {
	return target == ErrInvalidEntryPoint
}
