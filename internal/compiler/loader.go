package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/engine"
	"github.com/roach88/microflo/internal/ir"
)

// Load parses graph text and builds a network bound to io.
//
// Errors are one of *ParseError, *component.UnknownComponentError,
// *engine.UnknownPortError or *engine.PortMismatchError, possibly wrapped
// with the source line. On error no network is returned and observers given
// in opts have seen nothing.
func Load(text string, reg *component.Registry, io board.IO, opts ...engine.Option) (*engine.Network, error) {
	g, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Build(g, reg, io, opts...)
}

// Build creates a network from a parsed graph. The network is not started.
func Build(g *Graph, reg *component.Registry, io board.IO, opts ...engine.Option) (*engine.Network, error) {
	if g == nil {
		return nil, errors.New("nil graph")
	}
	if reg == nil {
		return nil, errors.New("nil component registry")
	}

	defs := make([]*component.Definition, len(g.Instances))
	for i, inst := range g.Instances {
		def, err := reg.Lookup(inst.Component)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", inst.Line, err)
		}
		defs[i] = def
	}

	// Validate on a bare network first: observers in opts see complete graphs only.
	if _, err := assemble(g, defs, engine.New(io)); err != nil {
		return nil, err
	}
	return assemble(g, defs, engine.New(io, opts...))
}

func assemble(g *Graph, defs []*component.Definition, net *engine.Network) (*engine.Network, error) {
	for i, inst := range g.Instances {
		if _, err := net.AddNode(inst.Name, defs[i]); err != nil {
			return nil, fmt.Errorf("line %d: %w", inst.Line, err)
		}
	}

	for _, e := range g.Edges {
		if err := net.Connect(e.Src, e.SrcPort, e.Dst, e.DstPort); err != nil {
			return nil, fmt.Errorf("line %d: %w", e.Line, err)
		}
	}

	for _, iip := range g.IIPs {
		p, err := initialPacket(net, iip)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", iip.Line, err)
		}
		if err := net.AddInitial(iip.Dst, iip.Port, p); err != nil {
			return nil, fmt.Errorf("line %d: %w", iip.Line, err)
		}
	}

	return net, nil
}

// initialPacket coerces an IIP literal to the type of its destination port.
func initialPacket(net *engine.Network, iip IIP) (ir.Packet, error) {
	node, ok := net.Node(iip.Dst)
	if !ok {
		return ir.Packet{}, fmt.Errorf("%q: %w", iip.Dst, engine.ErrUnknownNode)
	}
	port, ok := node.Inport(iip.Port)
	if !ok {
		return ir.Packet{}, &engine.UnknownPortError{
			Node:      node.ID(),
			Component: node.Component(),
			Port:      iip.Port,
			Direction: engine.DirectionIn,
		}
	}

	p, err := ir.ParseLiteral(iip.Literal, port.Type)
	if err != nil {
		return ir.Packet{}, &engine.PortMismatchError{
			SrcType: ir.TypeString,
			Dst:     engine.Address{Node: node.ID(), Port: iip.Port},
			DstType: port.Type,
			Err:     err,
		}
	}
	return p, nil
}
