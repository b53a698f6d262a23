package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// stdSchema is the shared test catalog declaration.
func stdSchema(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs("../testutil/testdata/std.cue")
	require.NoError(t, err)
	return p
}

// writeScenario writes a scenario file into a temp dir and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func boolPtr(b bool) *bool {
	return &b
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
