package ir

// Version constants for the archive record format and the engine.
const (
	// FormatVersion is the generation record format version.
	FormatVersion = "1"

	// EngineVersion is the storygen engine version.
	EngineVersion = "0.1.0"
)
