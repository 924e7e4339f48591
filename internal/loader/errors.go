package loader

import "fmt"

// Error code constants, shared with the CLI's JSON output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No grammar files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeParseFailed = "E007" // YAML parse failed
	ErrCodeCompile     = "E008" // Grammar compilation failed
	ErrCodeUnsupported = "E009" // Unsupported file extension
	ErrCodeHeaderClash = "E010" // Conflicting title/entry across files
)

// LoadError represents an error that occurred while loading grammar files.
type LoadError struct {
	Code    string
	Message string
	Path    string // file or directory, if known
	Err     error  // underlying error, if any
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
