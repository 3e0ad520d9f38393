package engine

import (
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/ir"
)

// Direction distinguishes in ports from out ports.
type Direction string

const (
	// DirectionIn marks a port that receives packets.
	DirectionIn Direction = "in"
	// DirectionOut marks a port that emits packets.
	DirectionOut Direction = "out"
)

// Address names one port of one node.
type Address struct {
	Node string `json:"node"`
	Port string `json:"port"`
}

// IsZero reports whether the address is unset (the source of an IIP).
func (a Address) IsZero() bool {
	return a.Node == "" && a.Port == ""
}

// String renders the address as node.PORT.
func (a Address) String() string {
	return a.Node + "." + a.Port
}

// Port is a named, typed attachment point of a node.
// Node is the owning node's id: a relation, not ownership.
type Port struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Node      string    `json:"node"`
	Type      ir.Type   `json:"type"`
}

// Connection is a directed edge from an out port to an in port.
type Connection struct {
	Src Address `json:"src"`
	Dst Address `json:"dst"`
}

// Initial is an initial information packet, delivered once by Start.
type Initial struct {
	Dst    Address   `json:"dst"`
	Packet ir.Packet `json:"packet"`
}

// Message is a queued delivery.
type Message struct {
	Seq     int64     `json:"seq"`
	Src     Address   `json:"src"` // zero for IIPs
	Dst     Address   `json:"dst"`
	Packet  ir.Packet `json:"packet"`
	Initial bool      `json:"initial,omitempty"`
}

// NodeStatus is the scheduler state of a node.
type NodeStatus int

const (
	// NodeIdle means the node is waiting for a packet.
	NodeIdle NodeStatus = iota
	// NodeProcessing means one of the node's callbacks is running.
	NodeProcessing
)

// String implements fmt.Stringer.
func (s NodeStatus) String() string {
	if s == NodeProcessing {
		return "processing"
	}
	return "idle"
}

// Node is a running instance of a component definition.
type Node struct {
	id       string
	def      *component.Definition
	state    component.State
	status   NodeStatus
	inports  []Port
	outports []Port

	// routes lists connection destinations per out port, in connect order.
	routes map[string][]Address
}

func newNode(id string, def *component.Definition) *Node {
	n := &Node{
		id:     id,
		def:    def,
		state:  def.NewState(),
		routes: make(map[string][]Address),
	}
	for _, p := range def.Inports {
		n.inports = append(n.inports, Port{Name: p.Name, Direction: DirectionIn, Node: id, Type: portType(p.Type)})
	}
	for _, p := range def.Outports {
		n.outports = append(n.outports, Port{Name: p.Name, Direction: DirectionOut, Node: id, Type: portType(p.Type)})
	}
	return n
}

func portType(t ir.Type) ir.Type {
	if t == "" {
		return ir.TypeAny
	}
	return t
}

// ID returns the node id, unique within its network.
func (n *Node) ID() string { return n.id }

// Component returns the component type name.
func (n *Node) Component() string { return n.def.Name }

// Definition returns the component definition backing the node.
func (n *Node) Definition() *component.Definition { return n.def }

// State returns the node's current local state.
func (n *Node) State() component.State { return n.state }

// Status returns whether the node is idle or processing.
func (n *Node) Status() NodeStatus { return n.status }

// Inports returns the node's in ports in declaration order.
func (n *Node) Inports() []Port { return n.inports }

// Outports returns the node's out ports in declaration order.
func (n *Node) Outports() []Port { return n.outports }

// Inport returns the named in port.
func (n *Node) Inport(name string) (Port, bool) { return findPort(n.inports, name) }

// Outport returns the named out port.
func (n *Node) Outport(name string) (Port, bool) { return findPort(n.outports, name) }

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}
