package archive

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storygen/internal/ir"
)

func TestReadGeneration(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	stored, err := a.Append(ctx, createTestGeneration("gen-1", 7), testTable())
	require.NoError(t, err)

	got, err := a.ReadGeneration(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestReadGeneration_NotFound(t *testing.T) {
	a := createTestArchive(t)

	_, err := a.ReadGeneration(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "generation nope")
}

func TestListGenerations_Empty(t *testing.T) {
	a := createTestArchive(t)

	gens, err := a.ListGenerations(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, gens)
	assert.Empty(t, gens)
}

func TestListGenerations_Filters(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	other := ir.RuleTable{"*NOTHING*": {"Define grammar rules"}, "*X*": {"x"}}
	for i := 1; i <= 5; i++ {
		gen := createTestGeneration(fmt.Sprintf("gen-%d", i), uint64(i))
		table := testTable()
		if i%2 == 0 {
			gen.Title = "other"
			gen.Entry = "*X*"
			table = other
		}
		_, err := a.Append(ctx, gen, table)
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all", ListOptions{}, []string{"gen-1", "gen-2", "gen-3", "gen-4", "gen-5"}},
		{"by title", ListOptions{Title: "other"}, []string{"gen-2", "gen-4"}},
		{"by grammar", ListOptions{GrammarHash: ir.MustGrammarHash(testTable())}, []string{"gen-1", "gen-3", "gen-5"}},
		{"limit keeps most recent ascending", ListOptions{Limit: 2}, []string{"gen-4", "gen-5"}},
		{"title and limit", ListOptions{Title: "greetings", Limit: 1}, []string{"gen-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gens, err := a.ListGenerations(ctx, tt.opts)
			require.NoError(t, err)

			ids := make([]string, 0, len(gens))
			for _, g := range gens {
				ids = append(ids, g.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
