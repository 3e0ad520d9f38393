package testutil

import (
	"sync"

	"github.com/roach88/microflo/internal/engine"
	"github.com/roach88/microflo/internal/ir"
)

// RecordingObserver captures every network event for assertions.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex,
// so it can observe a simulator driven by its ticker goroutine.
type RecordingObserver struct {
	mu          sync.Mutex
	nodes       []string
	connections []engine.Connection
	sent        []engine.Message
	delivered   []engine.Message
	failures    []error
}

// NewRecordingObserver creates an empty recorder.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (r *RecordingObserver) NodeAdded(n *engine.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, n.ID())
}

func (r *RecordingObserver) Connected(c engine.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections = append(r.connections, c)
}

func (r *RecordingObserver) Sent(m engine.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
}

func (r *RecordingObserver) Delivered(m engine.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, m)
}

func (r *RecordingObserver) Failed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// Nodes returns the ids of added nodes in order.
func (r *RecordingObserver) Nodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.nodes...)
}

// Connections returns the recorded connections in order.
func (r *RecordingObserver) Connections() []engine.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Connection(nil), r.connections...)
}

// SentMessages returns every enqueued message in seq order.
func (r *RecordingObserver) SentMessages() []engine.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Message(nil), r.sent...)
}

// DeliveredMessages returns every delivered message in delivery order.
func (r *RecordingObserver) DeliveredMessages() []engine.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Message(nil), r.delivered...)
}

// DeliveredTo returns the packets delivered to node.port, in order.
func (r *RecordingObserver) DeliveredTo(node, port string) []ir.Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ir.Packet
	for _, m := range r.delivered {
		if m.Dst.Node == node && m.Dst.Port == port {
			out = append(out, m.Packet)
		}
	}
	return out
}

// Failures returns the reported failures in order.
func (r *RecordingObserver) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.failures...)
}

// Reset forgets everything recorded so far.
func (r *RecordingObserver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = nil
	r.connections = nil
	r.sent = nil
	r.delivered = nil
	r.failures = nil
}
