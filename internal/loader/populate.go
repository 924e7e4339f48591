package loader

import (
	"context"

	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/story"
)

// FilePopulator loads a grammar from Path each time it populates.
type FilePopulator struct {
	Path string
}

// Populate implements story.Populator.
func (p FilePopulator) Populate(ctx context.Context, rules story.RuleAdder) error {
	spec, err := Load(p.Path)
	if err != nil {
		return err
	}
	return SpecPopulator(*spec).Populate(ctx, rules)
}

// SpecPopulator returns a populator that inserts the rules of an already
// loaded grammar in their declared order.
func SpecPopulator(spec ir.GrammarSpec) story.Populator {
	return story.PopulatorFunc(func(ctx context.Context, rules story.RuleAdder) error {
		for _, r := range spec.Rules {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := rules.AddRule(r.Name, r.Alternatives...); err != nil {
				return err
			}
		}
		return nil
	})
}
