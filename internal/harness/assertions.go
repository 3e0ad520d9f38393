package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/microflo/internal/ir"
)

// AssertionError describes a failed assertion with context.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s failed: expected %v, got %v", e.Type, e.Expected, e.Actual)
}

// AssertionContext carries facts about the run that are not in the trace.
type AssertionContext struct {
	Nodes int
}

// EvaluateAssertions runs every assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx AssertionContext) error {
	switch a.Type {
	case AssertNodeCount:
		return assertNodeCount(a, actx)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertNoFailures:
		return assertNoFailures(result)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertNodeCount(a Assertion, actx AssertionContext) error {
	if actx.Nodes != a.Count {
		return &AssertionError{Type: a.Type, Expected: a.Count, Actual: actx.Nodes}
	}
	return nil
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range deliveriesTo(trace, a.Node, a.Port) {
		if a.Kind != "" && ev.Packet.Kind().String() != a.Kind {
			continue
		}
		if a.Value != nil && !valueMatches(ev.Packet, a.Value) {
			continue
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: describeMatch(a),
		Actual:   "no matching delivery",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed destinations appear in the
// delivery trace in that order. Other deliveries may interleave.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next == len(a.Deliveries) {
			break
		}
		if ev.Type == EventDelivery && ev.Dst == a.Deliveries[next] {
			next++
		}
	}
	if next < len(a.Deliveries) {
		return &AssertionError{
			Type:     a.Type,
			Expected: strings.Join(a.Deliveries, " -> "),
			Actual:   fmt.Sprintf("missing %s after %d matches", a.Deliveries[next], next),
			Trace:    trace,
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := len(deliveriesTo(trace, a.Node, a.Port))
	if n != a.Count {
		return &AssertionError{Type: a.Type, Expected: a.Count, Actual: n, Trace: trace}
	}
	return nil
}

func assertNoFailures(result *Result) error {
	failures := result.Failures()
	if len(failures) == 0 {
		return nil
	}
	msgs := make([]string, len(failures))
	for i, f := range failures {
		msgs[i] = f.Error
	}
	return &AssertionError{
		Type:     AssertNoFailures,
		Expected: "no failures",
		Actual:   strings.Join(msgs, "; "),
		Trace:    failures,
	}
}

// deliveriesTo returns deliveries whose destination is node, and port when
// it is set.
func deliveriesTo(trace []TraceEvent, node, port string) []TraceEvent {
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Type != EventDelivery {
			continue
		}
		n, p := splitAddress(ev.Dst)
		if n != node || (port != "" && p != port) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// splitAddress splits node.PORT at the last dot; node names may contain dots.
func splitAddress(addr string) (node, port string) {
	i := strings.LastIndexByte(addr, '.')
	if i < 0 {
		return addr, ""
	}
	return addr[:i], addr[i+1:]
}

// valueMatches compares a packet with a YAML-decoded scalar.
func valueMatches(p ir.Packet, want any) bool {
	switch w := want.(type) {
	case bool:
		v, ok := p.AsBool()
		return ok && v == w
	case int:
		v, ok := p.AsInt()
		return ok && v == int64(w)
	case int64:
		v, ok := p.AsInt()
		return ok && v == w
	case string:
		v, ok := p.AsString()
		return ok && v == w
	default:
		return false
	}
}

func describeMatch(a Assertion) string {
	target := a.Node
	if a.Port != "" {
		target += "." + a.Port
	}
	var parts []string
	if a.Kind != "" {
		parts = append(parts, "kind "+a.Kind)
	}
	if a.Value != nil {
		parts = append(parts, fmt.Sprintf("value %v", a.Value))
	}
	return fmt.Sprintf("delivery to %s with %s", target, strings.Join(parts, " and "))
}
