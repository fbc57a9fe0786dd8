package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const reshapeScript = `
name: reshape
steps:
  - object:
      "...":
      shout:
        get: /name
        upperCase:
`

func TestValidateCommand_File(t *testing.T) {
	path := writeScript(t, "reshape.yml", reshapeScript)
	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: reshape (1 steps)")
}

func TestValidateCommand_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"),
		[]byte("name: alpha\nsteps: []"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"),
		[]byte("name: beta\nsteps:\n  - start"), 0o644))

	out, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: alpha (0 steps)")
	assert.Contains(t, out, "ok: beta (1 steps)")
}

func TestValidateCommand_InvalidDefinition(t *testing.T) {
	path := writeScript(t, "bad.yml", "name: bad\nsteps:\n  - jump: nowhere")
	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestRunCommand_PrintsOutput(t *testing.T) {
	path := writeScript(t, "reshape.yml", reshapeScript)
	out, err := execute(t, "run", path, "--input", `{"name": "ada"}`, "--format", "json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "ada", doc["name"])
	assert.Equal(t, "ADA", doc["shout"])
}

func TestRunCommand_InputFile(t *testing.T) {
	script := writeScript(t, "reshape.yml", reshapeScript)
	input := writeScript(t, "input.json", `{"name": "grace"}`)
	out, err := execute(t, "run", script, "--input", "@"+input, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "GRACE")
}

func TestRunCommand_BadInputJSON(t *testing.T) {
	path := writeScript(t, "reshape.yml", reshapeScript)
	_, err := execute(t, "run", path, "--input", "{broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input document")
}

func TestRunCommand_RecordsHistory(t *testing.T) {
	path := writeScript(t, "reshape.yml", reshapeScript)
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "run", path, "--input", `{"name": "ada"}`, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", db, "--script", "reshape", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"reshape"`)
	assert.Contains(t, out, `"ok"`)
}

func TestInvalidFormatFlag(t *testing.T) {
	path := writeScript(t, "reshape.yml", reshapeScript)
	_, err := execute(t, "validate", path, "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestParseInput(t *testing.T) {
	v, err := parseInput("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseInput(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)

	_, err = parseInput("@/nonexistent/file.json")
	require.Error(t, err)
}

func TestRunCommand_JSONOutputGolden(t *testing.T) {
	path := writeScript(t, "reshape.yml", reshapeScript)
	out, err := execute(t, "run", path, "--input", `{"name": "ada", "tags": ["a", "b"]}`, "--format", "json")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "run_output", []byte(out))
}

func TestCommandWiring(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "validate", "serve", "history"} {
		assert.True(t, names[want], want)
	}
}
