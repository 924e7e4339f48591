package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/storygen/internal/archive"
	"github.com/roach88/storygen/internal/expand"
	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/story"
)

// AssertionContext gives assertions access to the scenario's archive.
type AssertionContext struct {
	Archive *archive.Archive
	Ctx     context.Context
	Logger  *slog.Logger
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Stories  []ir.Generation // All stories for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Stories) > 0 {
		fmt.Fprintf(&buf, "\nStories:\n")
		for _, s := range e.Stories {
			fmt.Fprintf(&buf, "  [%d] seed=%d %q\n", s.Seq, s.Seed, s.Text)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTextEquals:
			err = eachStory(result.Stories, assertion, func(text string) bool {
				return text == assertion.Text
			}, fmt.Sprintf("text %q", assertion.Text))
		case AssertTextContains:
			err = eachStory(result.Stories, assertion, func(text string) bool {
				return strings.Contains(text, assertion.Text)
			}, fmt.Sprintf("text containing %q", assertion.Text))
		case AssertOneOf:
			err = eachStory(result.Stories, assertion, func(text string) bool {
				return slices.Contains(assertion.Texts, text)
			}, fmt.Sprintf("one of %q", assertion.Texts))
		case AssertNoTokens:
			if actx == nil || actx.Archive == nil {
				err = fmt.Errorf("assertion[%d]: no_tokens requires archive context", i)
			} else {
				err = assertNoTokens(actx, result.Stories)
			}
		case AssertMaxPasses:
			err = assertMaxPasses(result.Stories, assertion.Count)
		case AssertDistinct:
			err = assertDistinct(result.Stories, assertion.Count)
		case AssertError:
			err = assertError(result, assertion.Error)
		case AssertReplays:
			if actx == nil || actx.Archive == nil {
				err = fmt.Errorf("assertion[%d]: replays requires archive context", i)
			} else {
				err = assertReplays(actx, result.Stories)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// eachStory checks ok against every story. A run with no stories fails, so a
// text assertion never passes vacuously.
func eachStory(stories []ir.Generation, a Assertion, ok func(string) bool, expected string) error {
	if len(stories) == 0 {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: "no stories generated"}
	}
	for _, s := range stories {
		if !ok(s.Text) {
			return &AssertionError{
				Type:     a.Type,
				Expected: expected,
				Actual:   fmt.Sprintf("story %d was %q", s.Seq, s.Text),
				Stories:  stories,
			}
		}
	}
	return nil
}

// assertNoTokens checks that no story still contains a word naming a rule of
// the grammar it was generated from.
func assertNoTokens(actx *AssertionContext, stories []ir.Generation) error {
	for _, s := range stories {
		table, err := actx.Archive.ReadGrammar(actx.Ctx, s.GrammarHash)
		if err != nil {
			return fmt.Errorf("no_tokens: %w", err)
		}
		for _, word := range strings.Fields(s.Text) {
			bare, _ := expand.SplitTerminator(word)
			if !grammar.IsCanonical(bare) {
				continue
			}
			if _, ok := table[bare]; ok {
				return &AssertionError{
					Type:     AssertNoTokens,
					Expected: "no rule tokens in generated text",
					Actual:   fmt.Sprintf("story %d contains %s", s.Seq, bare),
					Stories:  stories,
				}
			}
		}
	}
	return nil
}

func assertMaxPasses(stories []ir.Generation, limit int) error {
	for _, s := range stories {
		if s.Passes > limit {
			return &AssertionError{
				Type:     AssertMaxPasses,
				Expected: fmt.Sprintf("at most %d passes", limit),
				Actual:   fmt.Sprintf("story %d took %d passes", s.Seq, s.Passes),
				Stories:  stories,
			}
		}
	}
	return nil
}

func assertDistinct(stories []ir.Generation, want int) error {
	seen := make(map[string]bool, len(stories))
	for _, s := range stories {
		seen[s.Text] = true
	}
	if len(seen) < want {
		return &AssertionError{
			Type:     AssertDistinct,
			Expected: fmt.Sprintf("at least %d distinct stories", want),
			Actual:   fmt.Sprintf("%d distinct stories", len(seen)),
			Stories:  stories,
		}
	}
	return nil
}

func assertError(result *Result, kind string) error {
	if result.ErrorKind == kind {
		return nil
	}
	actual := "generation succeeded"
	if result.Err != nil {
		actual = fmt.Sprintf("%s (%v)", result.ErrorKind, result.Err)
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: fmt.Sprintf("generation error %s", kind),
		Actual:   actual,
		Stories:  result.Stories,
	}
}

// assertReplays regenerates every story from its archived record and rule
// table and requires identical text.
func assertReplays(actx *AssertionContext, stories []ir.Generation) error {
	for _, s := range stories {
		archived, err := actx.Archive.ReadGeneration(actx.Ctx, s.ID)
		if err != nil {
			return fmt.Errorf("replays: %w", err)
		}
		table, err := actx.Archive.ReadGrammar(actx.Ctx, archived.GrammarHash)
		if err != nil {
			return fmt.Errorf("replays: %w", err)
		}
		res, err := story.Replay(actx.Ctx, archived, table, story.WithLogger(actx.Logger))
		if err != nil {
			return fmt.Errorf("replays: %w", err)
		}
		if !res.Match() {
			return &AssertionError{
				Type:     AssertReplays,
				Expected: fmt.Sprintf("story %d to replay as %q", s.Seq, archived.Text),
				Actual:   fmt.Sprintf("replayed as %q", res.Text),
				Stories:  stories,
			}
		}
	}
	return nil
}
