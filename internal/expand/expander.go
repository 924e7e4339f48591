package expand

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/storygen/internal/grammar"
)

// Source is the read side of a rule store.
// *grammar.Store satisfies Source.
type Source interface {
	// Lookup reports whether token is exactly an existing canonical name.
	Lookup(token string) bool

	// PickAlternative returns a random alternative of a canonical name.
	PickAlternative(name string) (string, error)
}

// Result is the outcome of an expansion.
type Result struct {
	Text          string // final text, free of recognized rule names
	Passes        int    // passes performed, including the final no-change pass
	Substitutions int    // total rule substitutions
}

// Expander rewrites rule names into text.
type Expander struct {
	source    Source
	maxPasses int
	logger    *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithMaxPasses bounds the number of passes. Zero (the default) means no
// bound, in which case a cyclic grammar never returns.
func WithMaxPasses(n int) Option {
	return func(e *Expander) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Expander) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Expander reading rules from source.
func New(source Source, opts ...Option) *Expander {
	e := &Expander{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand canonicalizes entry and rewrites it until a pass makes no change.
//
// The entry point is expected to be validated by the caller. An entry that is
// not a rule expands to its own canonical token. Context cancellation is
// checked between passes.
func (e *Expander) Expand(ctx context.Context, entry string) (Result, error) {
	canonical, err := grammar.Canonical(entry)
	if err != nil {
		return Result{}, err
	}
	return e.ExpandText(ctx, canonical)
}

// ExpandText rewrites arbitrary text until a pass makes no change.
// Used directly when the starting text is a template rather than a rule name.
func (e *Expander) ExpandText(ctx context.Context, text string) (Result, error) {
	res := Result{Text: text}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		next, n, err := e.pass(res.Text)
		if err != nil {
			return res, err
		}
		res.Passes++
		res.Substitutions += n
		e.logger.DebugContext(ctx, "expansion pass", "pass", res.Passes, "substitutions", n)

		if n == 0 {
			// A no-change pass still normalizes whitespace.
			res.Text = next
			return res, nil
		}
		res.Text = next

		if e.maxPasses > 0 && res.Passes >= e.maxPasses {
			return res, &PassLimitError{
				Entry:  firstWord(text),
				Passes: res.Passes,
				Limit:  e.maxPasses,
				Text:   res.Text,
			}
		}
	}
}

// pass performs one rewrite over text and returns the new text and the
// number of substitutions made.
func (e *Expander) pass(text string) (string, int, error) {
	words := strings.Fields(text)
	substitutions := 0

	for i, word := range words {
		bare, terminator := SplitTerminator(word)
		if !e.source.Lookup(bare) {
			continue
		}
		alt, err := e.source.PickAlternative(bare)
		if err != nil {
			return "", 0, err
		}
		words[i] = alt + terminator
		substitutions++
	}

	return strings.Join(words, " "), substitutions, nil
}

func firstWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	return fields[0]
}
