package expand

import (
	"errors"
	"fmt"
)

// ErrPassLimit is returned when an expansion exceeds its pass limit.
var ErrPassLimit = errors.New("expansion pass limit exceeded")

// PassLimitError is returned when an expansion is still substituting after
// the configured maximum number of passes. This almost always means the
// grammar is cyclic.
type PassLimitError struct {
	Entry  string // canonical entry token
	Passes int    // passes performed
	Limit  int    // configured maximum
	Text   string // text after the last pass
}

func (e *PassLimitError) Error() string {
	return fmt.Sprintf("expanding %s: still substituting after %d passes (limit %d); grammar may be cyclic",
		e.Entry, e.Passes, e.Limit)
}

// Is makes errors.Is(err, ErrPassLimit) match.
func (e *PassLimitError) Is(target error) bool {
	return target == ErrPassLimit
}
