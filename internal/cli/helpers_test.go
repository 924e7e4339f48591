package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const greetingsYAML = `title: Greetings
entry: start
rules:
  start: "*GREETING*, *NAME*."
  greeting: Hello there
  name: Alice
`

const fairytaleCUE = `title: "Fairy Tale"
entry: "tale"

rule: {
	tale:    "Once upon a time *HERO* met *VILLAIN*. *ENDING*"
	hero:    ["a brave knight", "a clever fox", "a young witch"]
	villain: ["a dragon", "a troll", "the wind"]
	ending:  ["They became friends.", "*HERO* won.", "Nobody remembers why."]
}
`

const loopYAML = `title: Loop
entry: loop
rules:
  loop: "again *LOOP*"
`

// writeFile creates a file in dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON CLI response and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if v != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, v))
	}
	return resp
}

// generateInto archives count stories of the grammar at path into db.
func generateInto(t *testing.T, path, db string, args ...string) GenerateOutput {
	t.Helper()
	cmd := NewGenerateCommand(&RootOptions{Format: "json"})
	out, err := execute(cmd, append([]string{path, "--db", db}, args...)...)
	require.NoError(t, err)

	var gen GenerateOutput
	resp := decodeResponse(t, out, &gen)
	require.Equal(t, "ok", resp.Status)
	return gen
}
