package archive

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storygen/internal/ir"
)

func TestAppend_AssignsSeqAndHash(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	first, err := a.Append(ctx, createTestGeneration("gen-1", 7), testTable())
	require.NoError(t, err)
	second, err := a.Append(ctx, createTestGeneration("gen-2", 8), testTable())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, ir.MustGrammarHash(testTable()), first.GrammarHash)
	assert.Equal(t, int64(2), a.LastSeq())

	var grammars int
	require.NoError(t, a.db.QueryRow("SELECT COUNT(*) FROM grammars").Scan(&grammars))
	assert.Equal(t, 1, grammars, "one grammar shared by both generations")
}

func TestAppend_DuplicateIDReturnsExisting(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	original, err := a.Append(ctx, createTestGeneration("gen-1", 7), testTable())
	require.NoError(t, err)

	dup := createTestGeneration("gen-1", 99)
	dup.Text = "something else"
	got, err := a.Append(ctx, dup, testTable())
	require.NoError(t, err)

	assert.Equal(t, original, got)
}

func TestAppend_NoSeqGaps(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	first, err := a.Append(ctx, createTestGeneration("gen-1", 1), testTable())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)

	// A duplicate id is a no-op and must not consume a seq.
	_, err = a.Append(ctx, createTestGeneration("gen-1", 1), testTable())
	require.NoError(t, err)

	// Neither does a write that fails.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = a.Append(cancelled, createTestGeneration("gen-x", 5), testTable())
	require.Error(t, err)
	assert.Equal(t, int64(1), a.LastSeq())

	second, err := a.Append(ctx, createTestGeneration("gen-2", 2), testTable())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, int64(2), a.LastSeq())
}

func TestAppend_HashMismatch(t *testing.T) {
	a := createTestArchive(t)

	gen := createTestGeneration("gen-1", 7)
	gen.GrammarHash = "deadbeef"
	_, err := a.Append(context.Background(), gen, testTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match rule table")
}

func TestAppend_MissingID(t *testing.T) {
	a := createTestArchive(t)

	_, err := a.Append(context.Background(), createTestGeneration("", 7), testTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestAppend_HighBitSeed(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	_, err := a.Append(ctx, createTestGeneration("gen-max", math.MaxUint64), testTable())
	require.NoError(t, err)

	got, err := a.ReadGeneration(ctx, "gen-max")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got.Seed)
}

func TestAppend_ClockResumesAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	a, err := Open(path)
	require.NoError(t, err)
	_, err = a.Append(ctx, createTestGeneration("gen-1", 1), testTable())
	require.NoError(t, err)
	_, err = a.Append(ctx, createTestGeneration("gen-2", 2), testTable())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, int64(2), reopened.LastSeq())
	gen, err := reopened.Append(ctx, createTestGeneration("gen-3", 3), testTable())
	require.NoError(t, err)
	assert.Equal(t, int64(3), gen.Seq)
}

func TestWriteGrammar(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	hash, err := a.WriteGrammar(ctx, testTable())
	require.NoError(t, err)
	again, err := a.WriteGrammar(ctx, testTable())
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	table, err := a.ReadGrammar(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, testTable(), table)
}

func TestReadGrammar_Tampered(t *testing.T) {
	a := createTestArchive(t)
	ctx := context.Background()

	hash, err := a.WriteGrammar(ctx, testTable())
	require.NoError(t, err)
	_, err = a.db.Exec(`UPDATE grammars SET rules = '{"*X*":["y"]}' WHERE hash = ?`, hash)
	require.NoError(t, err)

	_, err = a.ReadGrammar(ctx, hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored table hashes to")
}

func TestReadGrammar_NotFound(t *testing.T) {
	a := createTestArchive(t)

	_, err := a.ReadGrammar(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
