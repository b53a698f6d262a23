package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a list of call sites resolved against one catalog, with the
// bindings each call is expected to produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema lists CUE declaration files or directories the catalog is
	// built from. Relative paths resolve against the scenario's base path.
	Schema []string `yaml:"schema"`

	// ModuleAliases maps aliases used at call sites to module names.
	// The alias "" names the default module.
	ModuleAliases map[string]string `yaml:"module_aliases,omitempty"`

	// Function compiles the calls inside the body of this function, so its
	// parameters are in scope. It must name a single overload.
	Function string `yaml:"function,omitempty"`

	// Session records the run under a fixed journal session. Defaults to Name.
	Session string `yaml:"session,omitempty"`

	// Calls are compiled in order.
	Calls []CallStep `yaml:"calls"`

	// Assertions validate the whole trace and the journal.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CallStep is one call site.
type CallStep struct {
	// Call is the source text, e.g. "len('abc')".
	Call string `yaml:"call"`

	// Expect describes the outer call's resolution. If nil the call must
	// resolve, and nothing else is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is a subset match on a resolution: only the fields that are
// set are compared.
type ExpectClause struct {
	// Function is the full name of the expected winner.
	Function   string `yaml:"function,omitempty"`
	Signature  string `yaml:"signature,omitempty"`
	ReturnType string `yaml:"return_type,omitempty"`

	// DefaultsMask is the hex-encoded mask, e.g. "01".
	DefaultsMask  string   `yaml:"defaults_mask,omitempty"`
	ImplicitCast  *bool    `yaml:"implicit_cast,omitempty"`
	EmptyVariadic *bool    `yaml:"empty_variadic,omitempty"`
	Args          []string `yaml:"args,omitempty"`

	// Error is the expected error code. Exclusive with the fields above.
	Error string `yaml:"error,omitempty"`
}

func (e *ExpectClause) expectsSuccess() bool {
	return e.Function != "" || e.Signature != "" || e.ReturnType != "" || e.DefaultsMask != "" ||
		e.ImplicitCast != nil || e.EmptyVariadic != nil || e.Args != nil
}

// Assertion validates the trace or the journal.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, journal.
	Type string `yaml:"type"`

	// Function matches either the name written at the call site or the
	// winner's full name (trace_contains, trace_count, journal).
	Function string `yaml:"function,omitempty"`

	// Functions is the expected resolution order (trace_order).
	Functions []string `yaml:"functions,omitempty"`

	// Count is the expected number of matches (trace_count, journal).
	Count int `yaml:"count,omitempty"`

	// Failed restricts journal to failed resolutions.
	Failed bool `yaml:"failed,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertJournal       = "journal"
)

// LoadScenario reads and parses a scenario YAML file. Schema paths resolve
// against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving schema paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve schema paths relative to base path BEFORE validation
	for i, p := range scenario.Schema {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Schema[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without validating schema paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Schema) == 0 {
		return fmt.Errorf("schema list is required and must be non-empty")
	}

	if len(s.Calls) == 0 {
		return fmt.Errorf("calls list is required and must be non-empty")
	}

	for _, p := range s.Schema {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("schema path not found: %s", p)
		}
	}

	for i, step := range s.Calls {
		if step.Call == "" {
			return fmt.Errorf("calls[%d]: call is required", i)
		}
		if step.Expect == nil {
			continue
		}
		if step.Expect.Error != "" && step.Expect.expectsSuccess() {
			return fmt.Errorf("calls[%d].expect: error excludes binding fields", i)
		}
		if step.Expect.DefaultsMask != "" {
			if _, err := hex.DecodeString(step.Expect.DefaultsMask); err != nil {
				return fmt.Errorf("calls[%d].expect: defaults_mask must be hex: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Functions) == 0 {
			return fmt.Errorf("assertions[%d]: functions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertJournal:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
