package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/ir"
)

// Network is a loaded graph plus the queue and scheduler driving it.
//
// INVARIANTS:
//   - node ids are unique; nodes are never removed
//   - nodes keep insertion (load) order; IIP delivery and init follow it
//   - the graph is frozen once Start has been called
type Network struct {
	io          board.IO
	nodes       []*Node
	byID        map[string]*Node
	connections []Connection
	initials    []Initial

	queue    *messageQueue
	clock    *Clock
	observer Observers
	logger   *slog.Logger
	maxSteps int

	started bool
	stopped bool
}

// Option configures a Network.
type Option func(*Network)

// WithMaxSteps sets the delivery budget of one Start or Step call.
//
// Default: 1000 (DefaultMaxSteps).
func WithMaxSteps(maxSteps int) Option {
	return func(n *Network) {
		n.maxSteps = maxSteps
	}
}

// WithObserver adds observers notified of graph and message events.
// May be given several times.
func WithObserver(obs ...Observer) Option {
	return func(n *Network) {
		for _, o := range obs {
			if o != nil {
				n.observer = append(n.observer, o)
			}
		}
	}
}

// WithLogger sets the logger used for processing failures.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Network) {
		n.logger = logger
	}
}

// New creates an empty network bound to an IO backend.
func New(io board.IO, opts ...Option) *Network {
	n := &Network{
		io:       io,
		byID:     make(map[string]*Node),
		queue:    newMessageQueue(),
		clock:    NewClock(),
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddNode instantiates a component definition under a unique id.
func (n *Network) AddNode(id string, def *component.Definition) (*Node, error) {
	if n.started {
		return nil, ErrNetworkStarted
	}
	if id == "" {
		return nil, errors.New("node id is required")
	}
	if def == nil {
		return nil, fmt.Errorf("node %s: nil component definition", id)
	}
	if _, exists := n.byID[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	node := newNode(id, def)
	n.nodes = append(n.nodes, node)
	n.byID[id] = node
	n.observer.NodeAdded(node)
	return node, nil
}

// Connect wires an out port to an in port. An out port may feed any
// number of connections; packets fan out in connect order.
func (n *Network) Connect(srcNode, srcPort, dstNode, dstPort string) error {
	if n.started {
		return ErrNetworkStarted
	}

	src, err := n.port(srcNode, srcPort, DirectionOut)
	if err != nil {
		return err
	}
	dst, err := n.port(dstNode, dstPort, DirectionIn)
	if err != nil {
		return err
	}

	conn := Connection{
		Src: Address{Node: srcNode, Port: srcPort},
		Dst: Address{Node: dstNode, Port: dstPort},
	}
	if !ir.Compatible(src.Type, dst.Type) {
		return &PortMismatchError{Src: conn.Src, SrcType: src.Type, Dst: conn.Dst, DstType: dst.Type}
	}

	node := n.byID[srcNode]
	node.routes[srcPort] = append(node.routes[srcPort], conn.Dst)
	n.connections = append(n.connections, conn)
	n.observer.Connected(conn)
	return nil
}

// AddInitial attaches an initial information packet to an in port.
func (n *Network) AddInitial(dstNode, dstPort string, p ir.Packet) error {
	if n.started {
		return ErrNetworkStarted
	}

	dst, err := n.port(dstNode, dstPort, DirectionIn)
	if err != nil {
		return err
	}
	addr := Address{Node: dstNode, Port: dstPort}
	if !dst.Type.Accepts(p.Kind()) {
		return &PortMismatchError{SrcType: ir.Type(p.Kind().String()), Dst: addr, DstType: dst.Type}
	}

	n.initials = append(n.initials, Initial{Dst: addr, Packet: p})
	return nil
}

func (n *Network) port(nodeID, name string, dir Direction) (Port, error) {
	node, ok := n.byID[nodeID]
	if !ok {
		return Port{}, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}

	var (
		p     Port
		found bool
	)
	if dir == DirectionIn {
		p, found = node.Inport(name)
	} else {
		p, found = node.Outport(name)
	}
	if !found {
		return Port{}, &UnknownPortError{Node: nodeID, Component: node.Component(), Port: name, Direction: dir}
	}
	return p, nil
}

// Nodes returns the nodes in load order.
func (n *Network) Nodes() []*Node {
	out := make([]*Node, len(n.nodes))
	copy(out, n.nodes)
	return out
}

// Node returns the node with the given id.
func (n *Network) Node(id string) (*Node, bool) {
	node, ok := n.byID[id]
	return node, ok
}

// Connections returns the connections in connect order.
func (n *Network) Connections() []Connection {
	out := make([]Connection, len(n.connections))
	copy(out, n.connections)
	return out
}

// Initials returns the IIPs in declaration order.
func (n *Network) Initials() []Initial {
	out := make([]Initial, len(n.initials))
	copy(out, n.initials)
	return out
}

// IO returns the IO backend the network is bound to.
func (n *Network) IO() board.IO {
	return n.io
}

// QueueLen returns the number of pending messages. Zero means quiescent.
func (n *Network) QueueLen() int {
	return n.queue.Len()
}

// Started reports whether Start has been called.
func (n *Network) Started() bool {
	return n.started
}

// Stopped reports whether Stop has been called.
func (n *Network) Stopped() bool {
	return n.stopped
}

// MaxSteps returns the configured delivery budget.
func (n *Network) MaxSteps() int {
	return n.maxSteps
}

// Clock returns the logical clock stamping messages.
func (n *Network) Clock() *Clock {
	return n.clock
}
