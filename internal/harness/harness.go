package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/storygen/internal/archive"
	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/loader"
	"github.com/roach88/storygen/internal/story"
	"github.com/roach88/storygen/internal/testutil"
)

// Harness runs one scenario against a private archive.
type Harness struct {
	archive *archive.Archive
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory archive for isolation.
//
// Execution flow:
// 1. Load the grammar and append inline rules
// 2. Generate count stories with seeds seed, seed+1, ...
// 3. Archive each story with its rule table
// 4. Evaluate assertions
//
// A generation error stops the run and is recorded on the result; it fails
// the scenario unless an error assertion expects it. Returned errors are
// infrastructure failures (unreadable grammar, archive errors).
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	spec, err := scenarioGrammar(scenario)
	if err != nil {
		return nil, err
	}

	ar, err := archive.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory archive: %w", err)
	}
	defer ar.Close()

	h := &Harness{
		archive: ar,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	if err := h.generate(ctx, scenario, spec, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Archive: ar, Ctx: ctx, Logger: h.logger}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if result.Err != nil && !expectsError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("generation failed: %v", result.Err))
	}

	return result, nil
}

// scenarioGrammar loads the scenario grammar and appends its inline rules.
func scenarioGrammar(s *Scenario) (ir.GrammarSpec, error) {
	var spec ir.GrammarSpec
	if s.Grammar != "" {
		loaded, err := loader.Load(s.Grammar)
		if err != nil {
			return ir.GrammarSpec{}, fmt.Errorf("failed to load grammar: %w", err)
		}
		spec = *loaded
	}
	for _, r := range s.Rules {
		spec.Rules = append(spec.Rules, ir.RuleSpec{Name: r.Name, Alternatives: r.Alternatives})
	}

	if s.Title != "" {
		spec.Title = s.Title
	}
	if spec.Title == "" {
		spec.Title = s.Name
	}
	if s.Entry != "" {
		spec.Entry = s.Entry
	}
	return spec, nil
}

func (h *Harness) generate(ctx context.Context, s *Scenario, spec ir.GrammarSpec, result *Result) error {
	seed := s.Seed
	if seed == 0 {
		seed = 1
	}
	count := s.Count
	if count == 0 {
		count = 1
	}

	entry := spec.Entry
	spec.Entry = ""

	for i := 0; i < count; i++ {
		g, err := story.NewSeeded(spec.Title, spec, seed+uint64(i),
			story.WithMaxPasses(s.MaxPasses),
			story.WithIDGenerator(testutil.NewFixedIDGenerator(fmt.Sprintf("%s-%d", s.Name, i+1))),
			story.WithLogger(h.logger),
		)
		if err != nil {
			result.SetError(err)
			return nil
		}
		if entry != "" {
			if err := g.SetEntryPoint(entry); err != nil {
				result.SetError(err)
				return nil
			}
		}
		if err := g.Generate(ctx); err != nil {
			result.SetError(err)
			return nil
		}

		gen, err := g.Generation()
		if err != nil {
			return fmt.Errorf("story %d: %w", i+1, err)
		}
		stored, err := h.archive.Append(ctx, gen, g.Store().Table())
		if err != nil {
			return fmt.Errorf("story %d: %w", i+1, err)
		}
		result.AddStory(stored)
	}
	return nil
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
