package harness

import "github.com/roach88/microflo/internal/ir"

// TraceEvent is one delivery or failure in a scenario trace.
type TraceEvent struct {
	Type   string    `json:"type"` // "delivery" or "failure"
	Seq    int64     `json:"seq,omitempty"`
	TimeMs int64     `json:"time_ms"`
	Src    string    `json:"src,omitempty"` // node.PORT; empty for IIPs
	Dst    string    `json:"dst,omitempty"` // node.PORT
	Packet ir.Packet `json:"packet,omitzero"`
	Node   string    `json:"node,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Trace event types.
const (
	EventDelivery = "delivery"
	EventFailure  = "failure"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every delivery in seq order, followed by failures in
	// report order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Nodes is the number of nodes in the loaded network.
	Nodes int `json:"nodes"`

	// Final is the board state at the end of the run.
	Final PinState `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failures returns the failure events of the trace.
func (r *Result) Failures() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventFailure {
			out = append(out, e)
		}
	}
	return out
}
