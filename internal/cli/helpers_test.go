package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	stdSchemaDir   = filepath.Join("..", "testutil", "testdata")
	validSchemaDir = filepath.Join("..", "sdl", "testdata", "valid")
	badSchemaDir   = filepath.Join("..", "sdl", "testdata", "badtype")
	scenariosDir   = filepath.Join("..", "..", "testdata", "scenarios")
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeScenarioDir writes named scenario files into a fresh directory.
// Every scenario uses the shared std catalog by absolute path.
func writeScenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func stdSchemaFile(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join(stdSchemaDir, "std.cue"))
	require.NoError(t, err)
	return p
}
