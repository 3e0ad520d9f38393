package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microflo/internal/ir"
)

func sampleResult() *Result {
	r := NewResult()
	r.Nodes = 3
	r.Trace = []TraceEvent{
		{Type: EventDelivery, Seq: 1, Dst: "timer.INTERVAL", Packet: ir.Int(300)},
		{Type: EventDelivery, Seq: 2, Dst: "led.PIN", Packet: ir.Int(13)},
		{Type: EventDelivery, Seq: 3, TimeMs: 300, Src: "timer.OUT", Dst: "toggle.IN", Packet: ir.Bang()},
		{Type: EventDelivery, Seq: 4, TimeMs: 300, Src: "toggle.OUT", Dst: "led.IN", Packet: ir.Bool(true)},
	}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	r := sampleResult()
	assertions := []Assertion{
		{Type: AssertNodeCount, Count: 3},
		{Type: AssertTraceContains, Node: "led", Port: "IN", Value: true},
		{Type: AssertTraceContains, Node: "timer", Value: 300},
		{Type: AssertTraceContains, Node: "toggle", Kind: "bang"},
		{Type: AssertTraceOrder, Deliveries: []string{"timer.INTERVAL", "toggle.IN", "led.IN"}},
		{Type: AssertTraceCount, Node: "led", Count: 2},
		{Type: AssertTraceCount, Node: "led", Port: "IN", Count: 1},
		{Type: AssertNoFailures},
	}

	errs := EvaluateAssertions(r, assertions, AssertionContext{Nodes: r.Nodes})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "node count",
			assertion: Assertion{Type: AssertNodeCount, Count: 4},
			wantErr:   "assertion node_count failed: expected 4, got 3",
		},
		{
			name:      "wrong value",
			assertion: Assertion{Type: AssertTraceContains, Node: "led", Port: "IN", Value: false},
			wantErr:   "expected delivery to led.IN with value false, got no matching delivery",
		},
		{
			name:      "wrong kind",
			assertion: Assertion{Type: AssertTraceContains, Node: "led", Kind: "string"},
			wantErr:   "expected delivery to led with kind string",
		},
		{
			name:      "value type differs",
			assertion: Assertion{Type: AssertTraceContains, Node: "led", Port: "PIN", Value: "13"},
			wantErr:   "no matching delivery",
		},
		{
			name:      "order reversed",
			assertion: Assertion{Type: AssertTraceOrder, Deliveries: []string{"led.IN", "toggle.IN"}},
			wantErr:   "missing toggle.IN after 1 matches",
		},
		{
			name:      "count",
			assertion: Assertion{Type: AssertTraceCount, Node: "toggle", Count: 2},
			wantErr:   "assertion trace_count failed: expected 2, got 1",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "bogus"},
			wantErr:   `unknown assertion type "bogus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleResult()
			errs := EvaluateAssertions(r, []Assertion{tt.assertion}, AssertionContext{Nodes: r.Nodes})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]: ")
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_NoFailures(t *testing.T) {
	r := sampleResult()
	r.Trace = append(r.Trace,
		TraceEvent{Type: EventFailure, Node: "led", Error: "DigitalWrite: no pin configured"},
		TraceEvent{Type: EventFailure, Node: "timer", Error: "Timer: negative interval -1"},
	)

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertNoFailures}}, AssertionContext{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "DigitalWrite: no pin configured; Timer: negative interval -1")
}

func TestEvaluateAssertions_FailureEventsAreNotDeliveries(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceEvent{{Type: EventFailure, Node: "led", Error: "boom"}}

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertTraceCount, Node: "led", Count: 0}}, AssertionContext{})
	assert.Empty(t, errs)
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		addr, node, port string
	}{
		{"led.IN", "led", "IN"},
		{"board/led.1.IN", "board/led.1", "IN"},
		{"led", "led", ""},
	}
	for _, tt := range tests {
		node, port := splitAddress(tt.addr)
		assert.Equal(t, tt.node, node, tt.addr)
		assert.Equal(t, tt.port, port, tt.addr)
	}
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{Type: AssertTraceCount, Expected: 2, Actual: 0}
	assert.Equal(t, "assertion trace_count failed: expected 2, got 0", err.Error())
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
