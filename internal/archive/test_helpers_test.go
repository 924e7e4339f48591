package archive

import (
	"path/filepath"
	"testing"

	"github.com/roach88/storygen/internal/ir"
)

// createTestArchive creates a new archive in a temp dir for testing.
func createTestArchive(t *testing.T) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func testTable() ir.RuleTable {
	return ir.RuleTable{
		"*NOTHING*":  {"Define grammar rules"},
		"*START*":    {"*GREETING*, *NAME*."},
		"*GREETING*": {"Hello there", "Hi"},
		"*NAME*":     {"Alice"},
	}
}

// createTestGeneration creates a generation with minimal required fields.
func createTestGeneration(id string, seed uint64) ir.Generation {
	return ir.Generation{
		ID:            id,
		Title:         "greetings",
		Entry:         "*START*",
		Seed:          seed,
		Passes:        3,
		Substitutions: 3,
		Text:          "Hi, Alice.",
		EngineVersion: ir.EngineVersion,
	}
}
