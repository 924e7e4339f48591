package story

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storygen/internal/expand"
	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
)

// DefaultTitle is used when New is given an empty title.
const DefaultTitle = "myStory"

// Generator produces stories from a grammar store.
type Generator struct {
	title     string
	store     *grammar.Store
	entry     string // canonical; empty until SetEntryPoint succeeds
	story     string
	last      expand.Result
	seed      uint64
	maxPasses int
	ids       IDGenerator
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxPasses bounds each expansion. Zero means unbounded.
func WithMaxPasses(n int) Option {
	return func(g *Generator) {
		g.maxPasses = n
	}
}

// WithSeed records the seed the store's random source was built with so that
// archived generations can be replayed. It does not reseed the store.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithIDGenerator overrides the generation id source (for testing).
func WithIDGenerator(ids IDGenerator) Option {
	return func(g *Generator) {
		if ids != nil {
			g.ids = ids
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a generator over store. A nil store gets a fresh one.
func New(title string, store *grammar.Store, opts ...Option) *Generator {
	if title == "" {
		title = DefaultTitle
	}
	if store == nil {
		store = grammar.New()
	}
	g := &Generator{
		title:  title,
		store:  store,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Title returns the story title.
func (g *Generator) Title() string {
	return g.title
}

// Store returns the generator's rule store.
func (g *Generator) Store() *grammar.Store {
	return g.store
}

// EntryPoint returns the canonical entry point, or "" if none is set.
func (g *Generator) EntryPoint() string {
	return g.entry
}

// Story returns the last generated text.
func (g *Generator) Story() string {
	return g.story
}

// LastResult returns the expansion statistics of the last Generate call.
func (g *Generator) LastResult() expand.Result {
	return g.last
}

// String renders the story as "<title>:\n<story>\n".
func (g *Generator) String() string {
	return fmt.Sprintf("%s:\n%s\n", g.title, g.story)
}

// AddRule inserts alternatives into the store.
func (g *Generator) AddRule(name string, alternatives ...string) error {
	return g.store.AddRule(name, alternatives...)
}

// Reset clears the store back to the sentinel rule. The entry point is
// dropped too, since it may no longer name a rule.
func (g *Generator) Reset() {
	g.store.Reset()
	g.entry = ""
}

// Populate runs a rule producer against the store.
func (g *Generator) Populate(ctx context.Context, p Populator) error {
	before := g.store.Len()
	if err := p.Populate(ctx, g.store); err != nil {
		return fmt.Errorf("populate grammar: %w", err)
	}
	g.logger.DebugContext(ctx, "grammar populated", "rules_before", before, "rules_after", g.store.Len())
	return nil
}

// SetEntryPoint sets the rule to start generation from.
// Fails with ErrInvalidEntryPoint if name is not a rule, leaving the previous
// entry point in place.
func (g *Generator) SetEntryPoint(name string) error {
	if !g.store.IsRule(name) {
		return &InvalidEntryPointError{Name: name}
	}
	canonical, err := grammar.Canonical(name)
	if err != nil {
		return &InvalidEntryPointError{Name: name}
	}
	g.entry = canonical
	return nil
}

// Generate expands the entry point and stores the result as the story.
//
// The sentinel rule does not count as an entry point: Generate fails with
// ErrNoEntryPoint until SetEntryPoint has named a real rule.
func (g *Generator) Generate(ctx context.Context) error {
	if g.entry == "" || g.entry == grammar.SentinelName {
		return ErrNoEntryPoint
	}

	g.logger.InfoContext(ctx, "generating story", "title", g.title, "entry", g.entry)
	exp := expand.New(g.store, expand.WithMaxPasses(g.maxPasses), expand.WithLogger(g.logger))
	res, err := exp.Expand(ctx, g.entry)
	if err != nil {
		return fmt.Errorf("generate %s: %w", g.title, err)
	}

	g.story = res.Text
	g.last = res
	g.logger.DebugContext(ctx, "story generated", "passes", res.Passes, "substitutions", res.Substitutions)
	return nil
}

// Generation builds an archive record for the last generated story.
func (g *Generator) Generation() (ir.Generation, error) {
	hash, err := g.store.Hash()
	if err != nil {
		return ir.Generation{}, err
	}
	return ir.Generation{
		ID:            g.ids.Generate(),
		Title:         g.title,
		Entry:         g.entry,
		Seed:          g.seed,
		GrammarHash:   hash,
		Passes:        g.last.Passes,
		Substitutions: g.last.Substitutions,
		Text:          g.story,
		EngineVersion: ir.EngineVersion,
	}, nil
}
