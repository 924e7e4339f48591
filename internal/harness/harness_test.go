package harness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storygen/internal/expand"
	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/loader"
	"github.com/roach88/storygen/internal/story"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return scenario
}

func TestRun_Greeting(t *testing.T) {
	result, err := Run(context.Background(), loadTestScenario(t, "greeting.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Stories, 2)
	for i, s := range result.Stories {
		assert.Equal(t, fmt.Sprintf("greeting-%d", i+1), s.ID)
		assert.Equal(t, int64(i+1), s.Seq)
		assert.Equal(t, uint64(i+1), s.Seed)
		assert.Equal(t, "Greetings", s.Title)
		assert.Equal(t, "Hello there, Alice.", s.Text)
	}
}

func TestRun_FairytaleReplays(t *testing.T) {
	result, err := Run(context.Background(), loadTestScenario(t, "fairytale.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Stories, 5)
	assert.Equal(t, uint64(40), result.Stories[0].Seed)
	assert.Equal(t, uint64(44), result.Stories[4].Seed)
}

func TestRun_IsDeterministic(t *testing.T) {
	first, err := Run(context.Background(), loadTestScenario(t, "fairytale.yaml"))
	require.NoError(t, err)
	second, err := Run(context.Background(), loadTestScenario(t, "fairytale.yaml"))
	require.NoError(t, err)

	a, err := Snapshot("fairytale", first)
	require.NoError(t, err)
	b, err := Snapshot("fairytale", second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ExpectedErrors(t *testing.T) {
	tests := []struct {
		file string
		kind string
	}{
		{"bad_entry.yaml", KindInvalidEntryPoint},
		{"cyclic.yaml", KindPassLimit},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result, err := Run(context.Background(), loadTestScenario(t, tt.file))
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, tt.kind, result.ErrorKind)
			assert.Empty(t, result.Stories)
		})
	}
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_entry",
		Description: "Generation without an entry point",
		Rules:       []RuleStep{{Name: "a", Alternatives: loader.Alternatives{"x"}}},
		Assertions:  []Assertion{{Type: AssertNoTokens}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, KindNoEntryPoint, result.ErrorKind)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "generation failed")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	scenario := &Scenario{
		Name:        "fine",
		Description: "Generation succeeds",
		Rules:       []RuleStep{{Name: "a", Alternatives: loader.Alternatives{"x"}}},
		Entry:       "a",
		Assertions:  []Assertion{{Type: AssertError, Error: KindPassLimit}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "generation succeeded")
}

func TestRun_TitleDefaults(t *testing.T) {
	scenario := &Scenario{
		Name:        "titled",
		Description: "Title falls back to the scenario name",
		Rules:       []RuleStep{{Name: "a", Alternatives: loader.Alternatives{"x"}}},
		Entry:       "a",
		Assertions:  []Assertion{{Type: AssertTextEquals, Text: "x"}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "titled", result.Stories[0].Title)
}

func TestRun_GrammarLoadError(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "Grammar vanished",
		Grammar:     filepath.Join(t.TempDir(), "gone.yaml"),
		Assertions:  []Assertion{{Type: AssertNoTokens}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)

	var loadErr *loader.LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestEvaluateAssertions(t *testing.T) {
	stories := []ir.Generation{
		{Seq: 1, Text: "Hello there, Alice.", Passes: 3},
		{Seq: 2, Text: "Hi, Alice.", Passes: 3},
	}
	result := &Result{Pass: true, Stories: stories}

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"contains passes", Assertion{Type: AssertTextContains, Text: "Alice"}, ""},
		{"contains fails", Assertion{Type: AssertTextContains, Text: "Bob"}, `story 1 was "Hello there, Alice."`},
		{"equals fails on second", Assertion{Type: AssertTextEquals, Text: "Hello there, Alice."}, `story 2 was "Hi, Alice."`},
		{"one_of passes", Assertion{Type: AssertOneOf, Texts: []string{"Hi, Alice.", "Hello there, Alice."}}, ""},
		{"one_of fails", Assertion{Type: AssertOneOf, Texts: []string{"Hi, Alice."}}, "Assertion failed: one_of"},
		{"max_passes passes", Assertion{Type: AssertMaxPasses, Count: 3}, ""},
		{"max_passes fails", Assertion{Type: AssertMaxPasses, Count: 2}, "took 3 passes"},
		{"distinct passes", Assertion{Type: AssertDistinct, Count: 2}, ""},
		{"distinct fails", Assertion{Type: AssertDistinct, Count: 3}, "2 distinct stories"},
		{"no_tokens needs archive", Assertion{Type: AssertNoTokens}, "requires archive context"},
		{"replays needs archive", Assertion{Type: AssertReplays}, "requires archive context"},
		{"unknown type", Assertion{Type: "bogus"}, `unknown assertion type "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, nil)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_NoStories(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertTextContains, Text: "x"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no stories generated")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{story.ErrNoEntryPoint, KindNoEntryPoint},
		{fmt.Errorf("wrapped: %w", &story.InvalidEntryPointError{Name: "x"}), KindInvalidEntryPoint},
		{&expand.PassLimitError{Entry: "*A*", Passes: 2, Limit: 2}, KindPassLimit},
		{errors.New("disk on fire"), KindOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
