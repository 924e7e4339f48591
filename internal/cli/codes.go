package cli

import (
	"errors"

	"github.com/roach88/storygen/internal/loader"
)

// Command error codes (E011-E099). Grammar loading uses the loader codes
// E001-E010; grammar validation uses E101 and up.
const (
	ErrCodeEntry    = "E011" // entry point is not a rule
	ErrCodeGenerate = "E012" // expansion failed
	ErrCodeArchive  = "E013" // archive could not be opened, read or written
	ErrCodeMismatch = "E014" // replay text or grammar differs from the archive
	ErrCodeInvalid  = "E015" // grammar failed validation
	ErrCodeScenario = "E016" // scenario directory could not be scanned
)

// grammarError reports a grammar loading failure. Load errors keep their
// loader code; anything else is reported as generic.
func grammarError(f *OutputFormatter, err error) error {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, loadErr.Code+": failed to load grammar", err)
	}
	return f.fail(ExitCommandError, loader.ErrCodeGeneric, "failed to load grammar", err)
}
