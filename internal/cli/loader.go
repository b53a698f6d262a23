package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/qlbind/internal/compiler"
	"github.com/roach88/qlbind/internal/sdl"
)

// Error codes for CLI output.
const (
	// Schema loading
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Declaration rejected by the catalog builder
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Journal open/read/write error

	// Call resolution
	ErrCodeFunctionNotFound     = "E101"
	ErrCodeNoMatchingVariant    = "E102"
	ErrCodeAmbiguousCall        = "E103"
	ErrCodePolymorphicType      = "E104"
	ErrCodeArgumentType         = "E105"
	ErrCodeParameterNotCallable = "E106"
	ErrCodeTypeNotFound         = "E107"
	ErrCodeInvalidReference     = "E108"
	ErrCodeSyntax               = "E110"

	// Scenarios
	ErrCodeScenario   = "E201" // Scenario file failed validation
	ErrCodeTestFailed = "E202" // One or more scenarios failed
)

// LoadError is a schema loading error with an optional CUE position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema builds a catalog from every .cue file under dir, mapping each
// failure to a coded LoadError.
func LoadSchema(dir string) (*sdl.LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := sdl.FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	res, err := sdl.LoadFiles(files)
	if err != nil {
		return nil, convertSchemaError(err)
	}
	return res, nil
}

// convertSchemaError converts a builder error to a LoadError with position info.
func convertSchemaError(err error) *LoadError {
	var ce *sdl.CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    MapFieldToErrorCode(ce.Field),
			Message: ce.Message,
			Pos:     ce.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapFieldToErrorCode maps the failing declaration field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeLoadFailed
	case field == "modules", strings.HasPrefix(field, "modules."):
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// MapResolutionErrorCode maps a compiler error code to a CLI error code.
func MapResolutionErrorCode(code compiler.ErrorCode) string {
	switch code {
	case compiler.ErrCodeFunctionNotFound:
		return ErrCodeFunctionNotFound
	case compiler.ErrCodeNoMatchingVariant:
		return ErrCodeNoMatchingVariant
	case compiler.ErrCodeAmbiguousCall:
		return ErrCodeAmbiguousCall
	case compiler.ErrCodePolymorphicTypeUnresolved:
		return ErrCodePolymorphicType
	case compiler.ErrCodeArgumentTypeUnresolved:
		return ErrCodeArgumentType
	case compiler.ErrCodeParameterNotCallable:
		return ErrCodeParameterNotCallable
	case compiler.ErrCodeTypeNotFound:
		return ErrCodeTypeNotFound
	case compiler.ErrCodeInvalidReference:
		return ErrCodeInvalidReference
	case compiler.ErrCodeSyntax:
		return ErrCodeSyntax
	default:
		return ErrCodeGeneric
	}
}

// outputLoadError reports a schema loading failure as a command error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
	}
	if formatter.Format != "json" && loadErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message), nil)
}
