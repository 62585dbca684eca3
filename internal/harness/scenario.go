package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a persistence scenario.
// Scenarios execute a flow of entity operations against a fresh store and
// assert on the resulting trace and final table contents.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the first reading of the scenario clock (RFC 3339).
	// Defaults to testutil.DefaultStart.
	Start string `yaml:"start,omitempty"`

	// Flow contains the operations to perform, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and tables.
	// Supported types: trace_contains, trace_order, trace_count, row_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one entity operation.
type FlowStep struct {
	// Do is the operation: save, get, delete, all or exec.
	Do string `yaml:"do"`

	// Kind is the entity type: article or blog.
	// Not used when Ref is set, since the bound entity has a kind already.
	Kind string `yaml:"kind,omitempty"`

	// Ref names an entity bound by an earlier step's As.
	Ref string `yaml:"ref,omitempty"`

	// As binds the step's entity to a name for later steps.
	As string `yaml:"as,omitempty"`

	// PK is the primary key a get step loads.
	PK *int64 `yaml:"pk,omitempty"`

	// Title, Context and Date set fields before a save.
	// Omitted fields keep their current values.
	Title   *string `yaml:"title,omitempty"`
	Context *string `yaml:"context,omitempty"`
	Date    string  `yaml:"date,omitempty"`

	// SQL is the statement an exec step runs.
	SQL string `yaml:"sql,omitempty"`

	// Expect is a subset match against the step's result.
	// If nil, the step only has to succeed.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// action returns the trace name of the step, e.g. "blog.save".
func (s FlowStep) action(kind string) string {
	if s.Do == OpExec {
		return OpExec
	}
	return kind + "." + s.Do
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check action appears in trace with args
	// - "trace_order": Check actions appear in order
	// - "trace_count": Check action appears exactly N times
	// - "row_count": Check table holds exactly N rows
	// - "final_state": Query table and verify expected values
	Type string `yaml:"type"`

	// Action is the action name, e.g. "article.save"
	// (used by trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected action arguments (used by trace_contains).
	// Subset match - only specified fields are validated.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Table is the table name (used by row_count, final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences or rows
	// (used by trace_count, row_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (used by trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRowCount      = "row_count"
	AssertFinalState    = "final_state"
)

// Flow operations.
const (
	OpSave   = "save"
	OpGet    = "get"
	OpDelete = "delete"
	OpAll    = "all"
	OpExec   = "exec"
)

// Entity kinds.
const (
	KindArticle = "article"
	KindBlog    = "blog"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// startTime returns the parsed Start, or the zero time when unset.
func (s *Scenario) startTime() (time.Time, error) {
	if s.Start == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s.Start)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := s.startTime(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Track bindings so refs can only name entities bound earlier
	bound := make(map[string]string)
	for i, step := range s.Flow {
		if err := validateStep(i, step, bound); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates one flow step and records its binding.
func validateStep(index int, step FlowStep, bound map[string]string) error {
	kind := step.Kind
	if step.Ref != "" {
		refKind, ok := bound[step.Ref]
		if !ok {
			return fmt.Errorf("flow[%d]: ref %q is not bound by an earlier step", index, step.Ref)
		}
		if step.Kind != "" && step.Kind != refKind {
			return fmt.Errorf("flow[%d]: kind %q does not match ref %q (%s)", index, step.Kind, step.Ref, refKind)
		}
		kind = refKind
	}

	switch step.Do {
	case OpSave:
		if step.Ref == "" && step.Kind == "" {
			return fmt.Errorf("flow[%d]: save needs kind or ref", index)
		}
	case OpGet:
		if step.PK == nil {
			return fmt.Errorf("flow[%d]: get needs pk", index)
		}
		if step.Kind == "" {
			return fmt.Errorf("flow[%d]: get needs kind", index)
		}
	case OpDelete:
		if step.Ref == "" {
			return fmt.Errorf("flow[%d]: delete needs ref", index)
		}
	case OpAll:
		if step.Kind == "" {
			return fmt.Errorf("flow[%d]: all needs kind", index)
		}
	case OpExec:
		if step.SQL == "" {
			return fmt.Errorf("flow[%d]: exec needs sql", index)
		}
		return nil
	case "":
		return fmt.Errorf("flow[%d]: do is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown operation %q", index, step.Do)
	}

	if kind != KindArticle && kind != KindBlog {
		return fmt.Errorf("flow[%d]: unknown kind %q", index, kind)
	}

	if step.Date != "" {
		if kind != KindBlog {
			return fmt.Errorf("flow[%d]: only blog articles have a date", index)
		}
		if _, err := time.Parse(time.RFC3339, step.Date); err != nil {
			return fmt.Errorf("flow[%d]: invalid date %q: %w", index, step.Date, err)
		}
	}

	if step.As != "" {
		bound[step.As] = kind
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
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
