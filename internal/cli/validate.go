package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/qlbind/internal/harness"
)

// ValidationResult reports which scenario files are well formed.
type ValidationResult struct {
	Valid   []string          `json:"valid"`
	Invalid []ScenarioProblem `json:"invalid"`
}

// ScenarioProblem is a scenario file that failed to load.
type ScenarioProblem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Check scenario files without running them",
		Long: `Parse and validate every scenario file under a directory.

Unknown fields, missing calls, malformed expectations and schema paths
that do not exist are all reported. Nothing is compiled.

Examples:
  qlbind validate ./testdata/scenarios
  qlbind validate ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	paths, err := harness.FindScenarios(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeScanError, fmt.Sprintf("error scanning directory: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := ValidationResult{Valid: []string{}, Invalid: []ScenarioProblem{}}
	for _, path := range paths {
		if _, err := harness.LoadScenario(path); err != nil {
			result.Invalid = append(result.Invalid, ScenarioProblem{Path: path, Message: err.Error()})
			continue
		}
		formatter.VerboseLog("Valid: %s", path)
		result.Valid = append(result.Valid, path)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if len(result.Invalid) > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenario,
				Message: fmt.Sprintf("%d invalid scenario(s)", len(result.Invalid)),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		for _, p := range result.Invalid {
			fmt.Fprintf(w, "✗ %s\n  %s\n", filepath.Base(p.Path), p.Message)
		}
		if len(result.Invalid) == 0 {
			fmt.Fprintf(w, "✓ %d scenario(s) valid\n", len(result.Valid))
		} else {
			fmt.Fprintf(w, "\n%d valid, %d invalid\n", len(result.Valid), len(result.Invalid))
		}
	}

	if len(result.Invalid) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid scenario(s)", len(result.Invalid)))
	}
	return nil
}
