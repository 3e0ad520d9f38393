package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/microflo/internal/ir"
)

var (
	// ErrNetworkStarted is returned when the graph is modified, or started
	// again, after Start.
	ErrNetworkStarted = errors.New("network already started")

	// ErrNetworkNotStarted is returned by Step before Start.
	ErrNetworkNotStarted = errors.New("network not started")

	// ErrNetworkStopped is returned by Start and Step after Stop.
	ErrNetworkStopped = errors.New("network stopped")

	// ErrDuplicateNode is returned when a node id is reused.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownNode is returned when a connection names a node that does not exist.
	ErrUnknownNode = errors.New("unknown node")
)

// UnknownPortError is returned when a connection or IIP names a port the
// component does not declare.
type UnknownPortError struct {
	Node      string
	Component string
	Port      string
	Direction Direction
}

// Error implements the error interface.
func (e *UnknownPortError) Error() string {
	return fmt.Sprintf("node %s (%s) has no %s port %q", e.Node, e.Component, e.Direction, e.Port)
}

// PortMismatchError is returned when a connection joins ports whose types
// are incompatible, or an IIP does not fit its destination port.
type PortMismatchError struct {
	// Src is zero for IIPs.
	Src     Address
	SrcType ir.Type
	Dst     Address
	DstType ir.Type
	// Err is the literal parse failure behind an IIP mismatch, if any.
	Err error
}

// Error implements the error interface.
func (e *PortMismatchError) Error() string {
	if e.Src.IsZero() {
		if e.Err != nil {
			return fmt.Sprintf("initial %s packet does not fit %s (%s): %v", e.SrcType, e.Dst, e.DstType, e.Err)
		}
		return fmt.Sprintf("initial %s packet does not fit %s (%s)", e.SrcType, e.Dst, e.DstType)
	}
	return fmt.Sprintf("cannot connect %s (%s) to %s (%s)", e.Src, e.SrcType, e.Dst, e.DstType)
}

// Unwrap returns the underlying literal error.
func (e *PortMismatchError) Unwrap() error {
	return e.Err
}

// ComponentProcessingError reports a callback failure during Start or Step.
// Only the failing message is affected; the node keeps its previous state.
type ComponentProcessingError struct {
	Node      string
	Component string
	Phase     string // "init", "process" or "tick"
	Port      string // in port for process failures
	Packet    ir.Packet
	Err       error
}

// Error implements the error interface.
func (e *ComponentProcessingError) Error() string {
	if e.Phase == "process" {
		return fmt.Sprintf("node %s (%s) failed to process %s on %s: %v", e.Node, e.Component, e.Packet, e.Port, e.Err)
	}
	return fmt.Sprintf("node %s (%s) failed in %s: %v", e.Node, e.Component, e.Phase, e.Err)
}

// Unwrap returns the component's error.
func (e *ComponentProcessingError) Unwrap() error {
	return e.Err
}

// IsProcessingError returns true for any run-time failure class: a
// component callback error or an exhausted step quota.
func IsProcessingError(err error) bool {
	var pe *ComponentProcessingError
	if errors.As(err, &pe) {
		return true
	}
	return IsStepsExceededError(err)
}
