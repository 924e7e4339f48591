package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryJSON(t *testing.T) {
	dir := t.TempDir()
	greetings := writeFile(t, dir, "greetings.yaml", greetingsYAML)
	fairytale := writeFile(t, dir, "fairytale.cue", fairytaleCUE)
	db := filepath.Join(dir, "stories.db")
	generateInto(t, greetings, db, "-n", "2")
	generateInto(t, fairytale, db, "-n", "3")

	tests := []struct {
		name     string
		args     []string
		wantSeqs []int64
	}{
		{"all", nil, []int64{1, 2, 3, 4, 5}},
		{"by title", []string{"--title", "Greetings"}, []int64{1, 2}},
		{"limit keeps the latest", []string{"--limit", "2"}, []int64{4, 5}},
		{"unknown title", []string{"--title", "Nope"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), append([]string{"--db", db}, tt.args...)...)
			require.NoError(t, err)

			var history HistoryOutput
			resp := decodeResponse(t, out, &history)
			assert.Equal(t, "ok", resp.Status)

			seqs := []int64{}
			for _, g := range history.Generations {
				seqs = append(seqs, g.Seq)
			}
			assert.Equal(t, tt.wantSeqs, seqs)
		})
	}
}

func TestHistoryText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.yaml", greetingsYAML)
	db := filepath.Join(dir, "stories.db")
	gen := generateInto(t, path, db, "--seed", "12")

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, gen.Stories[0].ID)
	assert.Contains(t, out, "seed=12")
	assert.Contains(t, out, "Hello there, Alice.")
}

func TestHistoryEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.yaml", greetingsYAML)
	db := filepath.Join(dir, "stories.db")
	generateInto(t, path, db)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--title", "Nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No stories archived.")
}

func TestHistoryMissingArchive(t *testing.T) {
	_, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFormatStoryLine(t *testing.T) {
	assert.Equal(t, "short", formatStoryLine("short", 10))
	assert.Equal(t, "a b c", formatStoryLine("a\n b\tc", 10))
	assert.Equal(t, "abcdefg...", formatStoryLine("abcdefghijklmnop", 10))
}
