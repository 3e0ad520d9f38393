package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/ir"
)

// recorder captures observer events for assertions.
type recorder struct {
	NopObserver
	added     []string
	delivered []Message
	failures  []error
}

func (r *recorder) NodeAdded(n *Node)   { r.added = append(r.added, n.ID()) }
func (r *recorder) Delivered(m Message) { r.delivered = append(r.delivered, m) }
func (r *recorder) Failed(err error)    { r.failures = append(r.failures, err) }

func (r *recorder) deliveredTo(addr string) []ir.Packet {
	var out []ir.Packet
	for _, m := range r.delivered {
		if m.Dst.String() == addr {
			out = append(out, m.Packet)
		}
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNetwork(t *testing.T, opts ...Option) (*Network, *board.SimulatedIO, *recorder) {
	t.Helper()
	sim := board.NewSimulated(board.DefaultProfile)
	rec := &recorder{}
	opts = append([]Option{WithLogger(quietLogger()), WithObserver(rec)}, opts...)
	return New(sim, opts...), sim, rec
}

func mustAdd(t *testing.T, n *Network, id string, def *component.Definition) *Node {
	t.Helper()
	node, err := n.AddNode(id, def)
	require.NoError(t, err)
	return node
}

// blink wires Timer -> ToggleBoolean -> DigitalWrite with the classic IIPs.
func blink(t *testing.T, n *Network, interval int64, pin int64) {
	t.Helper()
	mustAdd(t, n, "timer", component.Timer())
	mustAdd(t, n, "toggle", component.ToggleBoolean())
	mustAdd(t, n, "led", component.DigitalWrite())
	require.NoError(t, n.Connect("timer", "OUT", "toggle", "IN"))
	require.NoError(t, n.Connect("toggle", "OUT", "led", "IN"))
	require.NoError(t, n.AddInitial("timer", "INTERVAL", ir.Int(interval)))
	require.NoError(t, n.AddInitial("led", "PIN", ir.Int(pin)))
}
