package story

import "context"

// RuleAdder is the rule insertion interface offered to rule producers.
// *grammar.Store and *Generator satisfy RuleAdder.
type RuleAdder interface {
	AddRule(name string, alternatives ...string) error
}

// Populator is an external rule producer. It derives rule names and
// alternatives from some source and inserts them through a RuleAdder.
// The generator makes no assumption about how they were derived.
type Populator interface {
	Populate(ctx context.Context, rules RuleAdder) error
}

// PopulatorFunc adapts a function to the Populator interface.
type PopulatorFunc func(ctx context.Context, rules RuleAdder) error

// Populate calls f.
func (f PopulatorFunc) Populate(ctx context.Context, rules RuleAdder) error {
	return f(ctx, rules)
}
