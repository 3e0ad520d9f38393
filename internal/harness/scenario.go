package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is inline graph text. Exactly one of Program and
	// ProgramFile is required.
	Program string `yaml:"program,omitempty"`

	// ProgramFile is a path to graph text, relative to the scenario file.
	ProgramFile string `yaml:"program_file,omitempty"`

	// Board is a built-in board name or a CUE profile path. Empty means uno.
	Board string `yaml:"board,omitempty"`

	// MaxSteps overrides the per-step delivery budget.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Setup sets pin values and time before the program is loaded.
	Setup *PinState `yaml:"setup,omitempty"`

	// Steps drive the simulation after load.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final trace.
	Assertions []Assertion `yaml:"assertions"`
}

// PinState is a partial board state, used both to set up and to expect.
type PinState struct {
	DigitalOutputs map[int]bool `yaml:"digital_outputs,omitempty"`
	DigitalInputs  map[int]bool `yaml:"digital_inputs,omitempty"`
	AnalogOutputs  map[int]int  `yaml:"analog_outputs,omitempty"`
	AnalogInputs   map[int]int  `yaml:"analog_inputs,omitempty"`
	TimeMs         *int64       `yaml:"time_ms,omitempty"`
}

// Step is one action followed by an optional expectation.
type Step struct {
	// Advance moves simulated time forward by this many milliseconds.
	Advance *int64 `yaml:"advance,omitempty"`

	// SetDigital drives a digital input pin.
	SetDigital *DigitalPin `yaml:"set_digital,omitempty"`

	// SetAnalog drives an analog input pin.
	SetAnalog *AnalogPin `yaml:"set_analog,omitempty"`

	// Tick runs one scheduler step at the current time.
	Tick bool `yaml:"tick,omitempty"`

	// Expect is a subset match against the board state after the action.
	Expect *PinState `yaml:"expect,omitempty"`
}

// DigitalPin is a digital pin and level.
type DigitalPin struct {
	Pin   int  `yaml:"pin"`
	Value bool `yaml:"value"`
}

// AnalogPin is an analog pin and reading.
type AnalogPin struct {
	Pin   int `yaml:"pin"`
	Value int `yaml:"value"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": network has Count nodes
	// - "trace_contains": a delivery to Node[.Port] matches Value/Kind
	// - "trace_order": deliveries reach Deliveries in order
	// - "trace_count": exactly Count deliveries to Node[.Port]
	// - "no_failures": no processing failure was reported
	Type string `yaml:"type"`

	// Node and Port select deliveries. Port may be empty to match any.
	Node string `yaml:"node,omitempty"`
	Port string `yaml:"port,omitempty"`

	// Value is the expected packet value (bool, int or string).
	Value any `yaml:"value,omitempty"`

	// Kind is the expected packet kind, e.g. "bang".
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of nodes or deliveries.
	Count int `yaml:"count,omitempty"`

	// Deliveries lists node.PORT addresses for trace_order.
	Deliveries []string `yaml:"deliveries,omitempty"`
}

// Assertion type constants.
const (
	AssertNodeCount     = "node_count"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertNoFailures    = "no_failures"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// program_file and a board file path are resolved relative to the
// scenario file and inlined, so the returned scenario is self-contained.
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
	if scenario.ProgramFile != "" {
		programPath := scenario.ProgramFile
		if !filepath.IsAbs(programPath) {
			programPath = filepath.Join(base, programPath)
		}
		text, err := os.ReadFile(programPath)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: program file: %w", err)
		}
		scenario.Program = string(text)
	}
	if scenario.Board != "" && !filepath.IsAbs(scenario.Board) {
		candidate := filepath.Join(base, scenario.Board)
		if _, err := os.Stat(candidate); err == nil {
			scenario.Board = candidate
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:").
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

	switch {
	case s.Program == "" && s.ProgramFile == "":
		return fmt.Errorf("one of program or program_file is required")
	case s.Program != "" && s.ProgramFile != "":
		return fmt.Errorf("program and program_file are mutually exclusive")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
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

func validateStep(index int, s *Step) error {
	actions := 0
	if s.Advance != nil {
		actions++
		if *s.Advance < 0 {
			return fmt.Errorf("steps[%d]: advance must be non-negative", index)
		}
	}
	if s.SetDigital != nil {
		actions++
	}
	if s.SetAnalog != nil {
		actions++
	}
	if s.Tick {
		actions++
	}

	if actions > 1 {
		return fmt.Errorf("steps[%d]: at most one of advance, set_digital, set_analog, tick is allowed", index)
	}
	if actions == 0 && s.Expect == nil {
		return fmt.Errorf("steps[%d]: step needs an action or expect", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNodeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for node_count", index)
		}
	case AssertTraceContains:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_contains", index)
		}
		if a.Value == nil && a.Kind == "" {
			return fmt.Errorf("assertions[%d]: value or kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Deliveries) == 0 {
			return fmt.Errorf("assertions[%d]: deliveries list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertNoFailures:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
