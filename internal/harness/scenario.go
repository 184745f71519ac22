package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/refset/internal/scopeexpr"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Models lists the record types to build before the flow runs.
	Models []ModelSpec `yaml:"models"`

	// Flow contains the calls to make, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// ModelSpec describes one model and its data.
type ModelSpec struct {
	// Type is the model name ("Country").
	Type string `yaml:"type"`

	// Data is a dataset file read with package source. Relative paths
	// are resolved against the scenario file's directory.
	Data string `yaml:"data,omitempty"`

	// Table selects a table or root key within Data.
	Table string `yaml:"table,omitempty"`

	// Rows are inline rows, loaded after Data's rows.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Fields are declared before loading, in order.
	Fields []string `yaml:"fields,omitempty"`

	// Defaults declare fields with default values.
	Defaults map[string]any `yaml:"defaults,omitempty"`

	// Scopes are defined from expressions.
	Scopes []ScopeSpec `yaml:"scopes,omitempty"`
}

// ScopeSpec is an expression-defined scope.
type ScopeSpec struct {
	Name   string `yaml:"name"`
	Expr   string `yaml:"expr"`
	Engine string `yaml:"engine,omitempty"`
}

// FlowStep is one call.
type FlowStep struct {
	// Invoke is "Type.method".
	Invoke string `yaml:"invoke"`

	// Args are passed positionally.
	Args []any `yaml:"args,omitempty"`

	// Expect validates the outcome. If nil, any outcome is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a call.
type ExpectClause struct {
	// Case is the expected outcome case ("record", "not_found", ...).
	Case string `yaml:"case"`

	// IDs, when set, must equal the ids returned, in order.
	IDs []any `yaml:"ids,omitempty"`

	// Value, when set, must equal the call's value.
	Value any `yaml:"value,omitempty"`

	// Error, when set, must be a substring of the error message.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Invoke is the call to look for (trace_contains, trace_count).
	Invoke string `yaml:"invoke,omitempty"`

	// Args must prefix-match the call's args (trace_contains).
	Args []any `yaml:"args,omitempty"`

	// Count is the expected number of calls (trace_count).
	Count int `yaml:"count,omitempty"`

	// Invokes is the expected call order (trace_order).
	Invokes []string `yaml:"invokes,omitempty"`

	// Model is the record type to inspect (final_state).
	Model string `yaml:"model,omitempty"`

	// Where selects exactly one record (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected attribute values (final_state, subset).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

var validCases = map[string]bool{
	CaseRecord: true, CaseRecords: true, CaseRelation: true, CaseNone: true,
	CaseValue: true, CaseOK: true, CaseNotFound: true, CaseNoMethod: true,
	CaseIDError: true, CaseUnknownAttribute: true, CaseError: true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and model data paths are resolved against the file's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, m := range scenario.Models {
		if m.Data != "" && !filepath.IsAbs(m.Data) {
			scenario.Models[i].Data = filepath.Join(base, m.Data)
		}
	}

	if err := validateDataPaths(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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
	if len(s.Models) == 0 {
		return fmt.Errorf("models list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	types := make(map[string]bool, len(s.Models))
	for i, m := range s.Models {
		if m.Type == "" {
			return fmt.Errorf("models[%d]: type is required", i)
		}
		if types[m.Type] {
			return fmt.Errorf("models[%d]: duplicate type %q", i, m.Type)
		}
		types[m.Type] = true

		for j, sc := range m.Scopes {
			if sc.Name == "" || sc.Expr == "" {
				return fmt.Errorf("models[%d].scopes[%d]: name and expr are required", i, j)
			}
			if _, err := scopeexpr.ParseEngine(sc.Engine); err != nil {
				return fmt.Errorf("models[%d].scopes[%d]: %w", i, j, err)
			}
		}
	}

	for i, step := range s.Flow {
		typeName, _, err := splitInvoke(step.Invoke)
		if err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if !types[typeName] {
			return fmt.Errorf("flow[%d]: unknown model %q", i, typeName)
		}
		if step.Expect != nil && !validCases[step.Expect.Case] {
			return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], types); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, types map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Invoke == "" {
			return fmt.Errorf("assertions[%d]: invoke is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Invokes) == 0 {
			return fmt.Errorf("assertions[%d]: invokes list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Invoke == "" {
			return fmt.Errorf("assertions[%d]: invoke is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if !types[a.Model] {
			return fmt.Errorf("assertions[%d]: final_state needs a known model, got %q", index, a.Model)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validateDataPaths(s *Scenario) error {
	for i, m := range s.Models {
		if m.Data == "" {
			continue
		}
		if _, err := os.Stat(m.Data); err != nil {
			return fmt.Errorf("models[%d]: data file not found: %s", i, m.Data)
		}
	}
	return nil
}

// splitInvoke splits "Country.find_by_name" into its type and method.
func splitInvoke(invoke string) (string, string, error) {
	i := strings.LastIndexByte(invoke, '.')
	if i <= 0 || i == len(invoke)-1 {
		return "", "", fmt.Errorf("invoke %q must be Type.method", invoke)
	}
	return invoke[:i], invoke[i+1:], nil
}
