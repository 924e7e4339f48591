package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/storygen/internal/ir"
)

// Snapshot renders a scenario result as canonical JSON for golden
// comparison. Generation ids and grammar hashes are left out so that a
// snapshot only changes when generated text or expansion statistics do.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	stories := make([]any, len(result.Stories))
	for i, s := range result.Stories {
		stories[i] = map[string]any{
			"seq":           s.Seq,
			"seed":          s.Seed,
			"entry":         s.Entry,
			"passes":        s.Passes,
			"substitutions": s.Substitutions,
			"text":          s.Text,
		}
	}

	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"stories":       stories,
	}
	if result.ErrorKind != "" {
		snapshot["error"] = result.ErrorKind
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
