package expand

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/testutil"
)

// newStore builds a store from name/alternatives pairs.
func newStore(t *testing.T, opts []grammar.Option, rules map[string][]string) *grammar.Store {
	t.Helper()
	s := grammar.New(opts...)
	for name, alts := range rules {
		require.NoError(t, s.AddRule(name, alts...))
	}
	return s
}

func TestExpandGreetingExample(t *testing.T) {
	s := newStore(t, nil, map[string][]string{
		"greeting": {"Hello there", "Hi"},
		"name":     {"Alice"},
		"start":    {"*GREETING*, *NAME*."},
	})
	e := New(s)

	for i := 0; i < 50; i++ {
		res, err := e.Expand(context.Background(), "start")
		require.NoError(t, err)
		assert.Contains(t, []string{"Hello there, Alice.", "Hi, Alice."}, res.Text)
	}
}

func TestExpandDeterministicWithScriptedRand(t *testing.T) {
	s := newStore(t, []grammar.Option{grammar.WithRand(testutil.NewSequenceRand(0, 1, 0))}, map[string][]string{
		"start":    {"*GREETING*, *NAME*."},
		"greeting": {"Hello there", "Hi"},
		"name":     {"Alice"},
	})
	e := New(s)

	res, err := e.Expand(context.Background(), "START")
	require.NoError(t, err)
	assert.Equal(t, "Hi, Alice.", res.Text)
	assert.Equal(t, 3, res.Passes, "entry, then body, then no-change pass")
	assert.Equal(t, 3, res.Substitutions)
}

func TestExpandEntryIsCaseInsensitive(t *testing.T) {
	s := newStore(t, nil, map[string][]string{"name": {"Alice"}})
	e := New(s)

	for _, entry := range []string{"name", "NAME", "*name*", "*NAME*"} {
		res, err := e.Expand(context.Background(), entry)
		require.NoError(t, err)
		assert.Equal(t, "Alice", res.Text, "entry %q", entry)
	}
}

func TestExpandPunctuationPreserved(t *testing.T) {
	for _, mark := range []string{".", ",", "?", "!", ";"} {
		t.Run(mark, func(t *testing.T) {
			s := newStore(t, nil, map[string][]string{
				"name":  {"Alice"},
				"start": {"Hello *NAME*" + mark},
			})
			res, err := New(s).Expand(context.Background(), "start")
			require.NoError(t, err)
			assert.Equal(t, "Hello Alice"+mark, res.Text)
		})
	}
}

func TestExpandOnlyOneTrailingMarkStripped(t *testing.T) {
	s := newStore(t, nil, map[string][]string{
		"name":  {"Alice"},
		"start": {"Is it *NAME*?!"},
	})

	res, err := New(s).Expand(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "Is it *NAME*?!", res.Text, "'*NAME*?' is not a rule name")
}

func TestExpandUnknownTokensPassThrough(t *testing.T) {
	s := newStore(t, nil, map[string][]string{
		"start": {"The *MISSING* cat, *GHOST*. sat *NAME*"},
		"name":  {"down"},
	})

	res, err := New(s).Expand(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "The *MISSING* cat, *GHOST*. sat down", res.Text)
}

func TestExpandLowercaseTokenIsLiteral(t *testing.T) {
	s := newStore(t, nil, map[string][]string{
		"start": {"*name* *NAME*"},
		"name":  {"Alice"},
	})

	res, err := New(s).Expand(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "*name* Alice", res.Text)
}

func TestExpandSentinel(t *testing.T) {
	res, err := New(grammar.New()).Expand(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, grammar.SentinelAlternative, res.Text)
	assert.NotEmpty(t, res.Text)
}

func TestExpandUnknownEntryReturnsToken(t *testing.T) {
	res, err := New(grammar.New()).Expand(context.Background(), "story")
	require.NoError(t, err)
	assert.Equal(t, "*STORY*", res.Text)
	assert.Equal(t, 1, res.Passes)
	assert.Equal(t, 0, res.Substitutions)
}

func TestExpandEmptyEntry(t *testing.T) {
	_, err := New(grammar.New()).Expand(context.Background(), "  ")
	assert.ErrorIs(t, err, grammar.ErrEmptyRuleName)
}

func TestExpandDeepAcyclicGrammarTerminates(t *testing.T) {
	s := grammar.New()
	const depth = 500
	for i := 0; i < depth; i++ {
		require.NoError(t, s.AddRule(ruleName(i), "*"+strings.ToUpper(ruleName(i+1))+"*"))
	}
	require.NoError(t, s.AddRule(ruleName(depth), "bottom"))

	res, err := New(s).Expand(context.Background(), ruleName(0))
	require.NoError(t, err)
	assert.Equal(t, "bottom", res.Text)
	assert.Equal(t, depth+2, res.Passes)
}

func TestExpandResultHasNoRecognizedTokens(t *testing.T) {
	s := newStore(t, []grammar.Option{grammar.WithRand(grammar.NewSeededRand(99))}, map[string][]string{
		"story":   {"*SUBJECT* *VERB* *OBJECT*.", "*SUBJECT* *VERB*; *STORY*", "Once upon a time, *STORY*"},
		"subject": {"The fox", "A *ADJ* dog", "*NAME*"},
		"verb":    {"jumped", "slept", "ran"},
		"object":  {"the fence", "a *ADJ* log"},
		"adj":     {"lazy", "quick", "brown"},
		"name":    {"Alice", "Bob"},
	})
	// STORY recurses but always has a terminating alternative.
	e := New(s, WithMaxPasses(1000))

	for i := 0; i < 20; i++ {
		res, err := e.Expand(context.Background(), "story")
		if errors.Is(err, ErrPassLimit) {
			continue
		}
		require.NoError(t, err)
		for _, word := range strings.Fields(res.Text) {
			bare, _ := SplitTerminator(word)
			assert.False(t, s.Lookup(bare), "leftover token %q in %q", word, res.Text)
		}
	}
}

func TestExpandSelfReferenceHitsPassLimit(t *testing.T) {
	// X -> *X* never terminates without a guard.
	s := newStore(t, nil, map[string][]string{"x": {"*X*"}})

	res, err := New(s, WithMaxPasses(25)).Expand(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPassLimit)

	var limitErr *PassLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "*X*", limitErr.Entry)
	assert.Equal(t, 25, limitErr.Passes)
	assert.Equal(t, 25, limitErr.Limit)
	assert.Equal(t, "*X*", res.Text)
	assert.Contains(t, err.Error(), "may be cyclic")
}

func TestExpandCancelledContext(t *testing.T) {
	s := newStore(t, nil, map[string][]string{"x": {"*X*"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(s).Expand(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpandTextNormalizesWhitespace(t *testing.T) {
	s := newStore(t, nil, map[string][]string{"name": {"Alice"}})

	res, err := New(s).ExpandText(context.Background(), "  Hello\t*NAME*\n ")
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice", res.Text)
}

func TestExpandEmptyAlternativeCollapses(t *testing.T) {
	s := newStore(t, nil, map[string][]string{
		"opt":   {""},
		"start": {"a *OPT* b"},
	})

	res, err := New(s).Expand(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "a b", res.Text)
}

// failingSource reports every token as a rule but fails to pick.
type failingSource struct{}

func (failingSource) Lookup(string) bool { return true }
func (failingSource) PickAlternative(name string) (string, error) {
	return "", &grammar.UnknownRuleError{Name: name}
}

func TestExpandPropagatesPickError(t *testing.T) {
	_, err := New(failingSource{}).Expand(context.Background(), "x")
	assert.ErrorIs(t, err, grammar.ErrUnknownRule)
}

func ruleName(i int) string {
	return fmt.Sprintf("r_%d", i)
}
