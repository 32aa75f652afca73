package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args against an isolated home and
// knowledge base, returning combined output.
func execute(t *testing.T, baseDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SEMIDX_EMBEDDER", "mock")

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--base-dir", baseDir))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	for _, sub := range []string{"add", "search", "list", "status", "cancel", "remove", "clear", "version"} {
		assert.Contains(t, output, sub)
	}
}

func TestAddSearchListFlow(t *testing.T) {
	baseDir := t.TempDir()

	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "b.txt"), []byte("hello there"), 0o644))

	out, err := execute(t, baseDir, "add", source, "--fast", "--persist", "--name", "docs")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Indexing complete")

	out, err = execute(t, baseDir, "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "fast")

	out, err = execute(t, baseDir, "search", "hello")
	require.NoError(t, err, out)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "2 results")
}

func TestStatusCmd_EmptyBase(t *testing.T) {
	out, err := execute(t, t.TempDir(), "status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Contexts: 0 total")
}

func TestClearCmd_RequiresForce(t *testing.T) {
	_, err := execute(t, t.TempDir(), "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestRemoveCmd_RequiresSelector(t *testing.T) {
	_, err := execute(t, t.TempDir(), "remove")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestAddCmd_MissingDirectory(t *testing.T) {
	_, err := execute(t, t.TempDir(), "add", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
