package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/microflo/internal/component"
	"github.com/roach88/microflo/internal/ir"
)

// Start delivers every IIP, runs every initializer and drains the queue.
//
// IIPs are delivered in the declaration order of their destination nodes
// (IIPs to the same node keep their own order), so that configuration such
// as a DigitalWrite PIN is in place before initializers run. Initializers
// run in node order and their emissions are routed like any other.
//
// Processing failures do not abort Start; they are returned joined once the
// network is quiescent.
func (n *Network) Start(ctx context.Context) error {
	if n.stopped {
		return ErrNetworkStopped
	}
	if n.started {
		return ErrNetworkStarted
	}
	n.started = true

	quota := NewQuotaEnforcer(n.maxSteps)
	var errs []error

	order := make(map[string]int, len(n.nodes))
	for i, node := range n.nodes {
		order[node.id] = i
	}
	initials := slices.Clone(n.initials)
	slices.SortStableFunc(initials, func(a, b Initial) int {
		return cmp.Compare(order[a.Dst.Node], order[b.Dst.Node])
	})
	for _, iip := range initials {
		n.enqueue(Message{Dst: iip.Dst, Packet: iip.Packet, Initial: true})
	}
	if err := n.drain(ctx, quota, "start"); err != nil {
		errs = append(errs, err)
	}

	for _, node := range n.nodes {
		if err := n.runHook(node, "init"); err != nil {
			errs = append(errs, err)
		}
	}
	if err := n.drain(ctx, quota, "start"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Step runs one scheduler tick: leftover messages are drained, every node
// with a Tick hook runs in load order, and the resulting messages are
// drained until the network is quiescent.
func (n *Network) Step(ctx context.Context) error {
	if n.stopped {
		return ErrNetworkStopped
	}
	if !n.started {
		return ErrNetworkNotStarted
	}

	quota := NewQuotaEnforcer(n.maxSteps)
	var errs []error

	if err := n.drain(ctx, quota, "step"); err != nil {
		errs = append(errs, err)
	}
	for _, node := range n.nodes {
		if !node.def.HasTick() {
			continue
		}
		if err := n.runHook(node, "tick"); err != nil {
			errs = append(errs, err)
		}
	}
	if err := n.drain(ctx, quota, "step"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Stop discards the queue. The network cannot be started or stepped again.
func (n *Network) Stop() {
	if n.stopped {
		return
	}
	n.stopped = true
	if dropped := n.queue.Clear(); dropped > 0 {
		n.logger.Debug("network stopped with pending messages", "discarded", dropped)
	}
}

// drain delivers messages until the queue is empty, the quota runs out or
// ctx is cancelled. Per-message failures are collected, not fatal.
func (n *Network) drain(ctx context.Context, quota *QuotaEnforcer, phase string) error {
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		msg, ok := n.queue.TryDequeue()
		if !ok {
			return errors.Join(errs...)
		}

		if err := quota.Check(phase); err != nil {
			var se *StepsExceededError
			if errors.As(err, &se) {
				se.Discarded = n.queue.Clear() + 1
			}
			n.fail(err)
			return errors.Join(append(errs, err)...)
		}

		if err := n.deliver(msg); err != nil {
			errs = append(errs, err)
		}
	}
}

// deliver runs the destination node's Process for one message.
func (n *Network) deliver(msg Message) error {
	node, ok := n.byID[msg.Dst.Node]
	if !ok {
		// Connect validates endpoints, so this is a broken invariant
		err := fmt.Errorf("deliver %s: %w", msg.Dst, ErrUnknownNode)
		n.fail(err)
		return err
	}

	n.observer.Delivered(msg)

	node.status = NodeProcessing
	st, out, err := node.def.Process(n.contextFor(node), node.state, msg.Dst.Port, msg.Packet)
	node.status = NodeIdle

	if err == nil {
		err = n.checkEmissions(node, out)
	}
	if err != nil {
		perr := &ComponentProcessingError{
			Node:      node.id,
			Component: node.Component(),
			Phase:     "process",
			Port:      msg.Dst.Port,
			Packet:    msg.Packet,
			Err:       err,
		}
		n.fail(perr)
		return perr
	}

	node.state = st
	n.route(node, out)
	return nil
}

// runHook runs Init or Tick on a node and routes its emissions.
func (n *Network) runHook(node *Node, phase string) error {
	var (
		st  component.State
		out []component.Emission
		err error
	)

	node.status = NodeProcessing
	if phase == "init" {
		st, out, err = node.def.Init(n.contextFor(node), node.state)
	} else {
		st, out, err = node.def.Tick(n.contextFor(node), node.state)
	}
	node.status = NodeIdle

	if err == nil {
		err = n.checkEmissions(node, out)
	}
	if err != nil {
		perr := &ComponentProcessingError{
			Node:      node.id,
			Component: node.Component(),
			Phase:     phase,
			Err:       err,
		}
		n.fail(perr)
		return perr
	}

	node.state = st
	n.route(node, out)
	return nil
}

// checkEmissions validates every emission before any of them is routed, so
// a bad emission leaves the node state and the queue untouched.
func (n *Network) checkEmissions(node *Node, out []component.Emission) error {
	for _, e := range out {
		port, ok := node.Outport(e.Port)
		if !ok {
			return &UnknownPortError{Node: node.id, Component: node.Component(), Port: e.Port, Direction: DirectionOut}
		}
		if !port.Type.Accepts(e.Packet.Kind()) {
			return fmt.Errorf("emitted %s on %s port %s", e.Packet, port.Type, e.Port)
		}
		src := Address{Node: node.id, Port: e.Port}
		for _, dst := range node.routes[e.Port] {
			in, _ := n.byID[dst.Node].Inport(dst.Port)
			if !in.Type.Accepts(e.Packet.Kind()) {
				return &PortMismatchError{Src: src, SrcType: ir.Type(e.Packet.Kind().String()), Dst: dst, DstType: in.Type}
			}
		}
	}
	return nil
}

// route enqueues each emission on every connection of its out port.
// Emissions on unconnected ports are dropped.
func (n *Network) route(node *Node, out []component.Emission) {
	for _, e := range out {
		src := Address{Node: node.id, Port: e.Port}
		for _, dst := range node.routes[e.Port] {
			n.enqueue(Message{Src: src, Dst: dst, Packet: e.Packet})
		}
	}
}

func (n *Network) enqueue(m Message) {
	m.Seq = n.clock.Next()
	n.queue.Enqueue(m)
	n.observer.Sent(m)
}

func (n *Network) contextFor(node *Node) component.Context {
	return component.Context{Node: node.id, IO: n.io}
}

// fail logs a run-time failure and notifies observers ("log and continue").
func (n *Network) fail(err error) {
	n.logger.Error("network processing failed", "error", err)
	n.observer.Failed(err)
}
