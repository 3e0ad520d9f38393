package harness

import (
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/microflo/internal/ir"
)

// TraceSnapshot captures the trace and final board state of a scenario.
// It is serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Final        PinState     `json:"final"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Pin maps are keyed by decimal strings.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type":    event.Type,
			"time_ms": event.TimeMs,
		}
		if event.Seq != 0 {
			eventMap["seq"] = event.Seq
		}
		if event.Src != "" {
			eventMap["src"] = event.Src
		}
		if event.Dst != "" {
			eventMap["dst"] = event.Dst
		}
		if event.Packet.IsValid() {
			eventMap["packet"] = event.Packet
		}
		if event.Node != "" {
			eventMap["node"] = event.Node
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	final := map[string]any{
		"digital_outputs": pinMap(s.Final.DigitalOutputs),
		"analog_outputs":  pinMap(s.Final.AnalogOutputs),
	}
	if s.Final.TimeMs != nil {
		final["time_ms"] = *s.Final.TimeMs
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"final":         final,
	}
}

func pinMap[V bool | int](m map[int]V) map[string]any {
	out := make(map[string]any, len(m))
	for pin, v := range m {
		out[strconv.Itoa(pin)] = v
	}
	return out
}

// Snapshot renders a result as canonical JSON.
func Snapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) error {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
