package component

import (
	"errors"
	"fmt"

	"github.com/roach88/microflo/internal/board"
	"github.com/roach88/microflo/internal/ir"
)

// PortSpec declares a named, typed port on a component.
type PortSpec struct {
	Name        string  `json:"name"`
	Type        ir.Type `json:"type"`
	Description string  `json:"description,omitempty"`
}

// Emission is a packet a callback wants sent from one of its out ports.
type Emission struct {
	Port   string
	Packet ir.Packet
}

// Emit is shorthand for a single emission.
func Emit(port string, p ir.Packet) []Emission {
	return []Emission{{Port: port, Packet: p}}
}

// Context is what a callback may touch besides its own state.
type Context struct {
	// Node is the id of the node being run.
	Node string
	// IO is the board capability surface.
	IO board.IO
}

// Now returns the board time in milliseconds.
func (c Context) Now() int64 {
	return c.IO.Now()
}

// State is opaque node-local state owned by the engine between callbacks.
type State any

type (
	initFunc    func(Context, State) (State, []Emission, error)
	processFunc func(Context, State, string, ir.Packet) (State, []Emission, error)
	tickFunc    func(Context, State) (State, []Emission, error)
)

// Definition is the untyped behavior descriptor the engine instantiates.
// Build one with Define.
type Definition struct {
	Name        string
	Description string
	Inports     []PortSpec
	Outports    []PortSpec

	newState func() State
	init     initFunc
	process  processFunc
	tick     tickFunc
}

// Spec describes a component over a concrete state type S.
// The zero S is the state of a freshly created node.
type Spec[S any] struct {
	Name        string
	Description string
	Inports     []PortSpec
	Outports    []PortSpec

	Init    func(ctx Context, state S) (S, []Emission, error)
	Process func(ctx Context, state S, port string, p ir.Packet) (S, []Emission, error)
	Tick    func(ctx Context, state S) (S, []Emission, error)
}

// Define adapts a typed Spec into a Definition.
func Define[S any](spec Spec[S]) *Definition {
	def := &Definition{
		Name:        spec.Name,
		Description: spec.Description,
		Inports:     spec.Inports,
		Outports:    spec.Outports,
		newState: func() State {
			var zero S
			return zero
		},
	}

	if spec.Init != nil {
		def.init = func(ctx Context, st State) (State, []Emission, error) {
			s, err := stateAs[S](st)
			if err != nil {
				return st, nil, err
			}
			return spec.Init(ctx, s)
		}
	}
	if spec.Process != nil {
		def.process = func(ctx Context, st State, port string, p ir.Packet) (State, []Emission, error) {
			s, err := stateAs[S](st)
			if err != nil {
				return st, nil, err
			}
			return spec.Process(ctx, s, port, p)
		}
	}
	if spec.Tick != nil {
		def.tick = func(ctx Context, st State) (State, []Emission, error) {
			s, err := stateAs[S](st)
			if err != nil {
				return st, nil, err
			}
			return spec.Tick(ctx, s)
		}
	}
	return def
}

func stateAs[S any](st State) (S, error) {
	s, ok := st.(S)
	if !ok {
		var zero S
		return zero, fmt.Errorf("node state has type %T, want %T", st, zero)
	}
	return s, nil
}

// Validate checks that the definition can be registered.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return errors.New("component name is required")
	}
	if d.process == nil && len(d.Inports) > 0 {
		return fmt.Errorf("component %s: declares in ports but has no Process", d.Name)
	}
	if err := validatePorts(d.Name, "in", d.Inports); err != nil {
		return err
	}
	return validatePorts(d.Name, "out", d.Outports)
}

func validatePorts(component, dir string, ports []PortSpec) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if p.Name == "" {
			return fmt.Errorf("component %s: %s port name is required", component, dir)
		}
		if seen[p.Name] {
			return fmt.Errorf("component %s: duplicate %s port %s", component, dir, p.Name)
		}
		seen[p.Name] = true
		if _, err := ir.ParseType(string(p.Type)); err != nil {
			return fmt.Errorf("component %s: %s port %s: %w", component, dir, p.Name, err)
		}
	}
	return nil
}

// Inport returns the in port with the given name.
func (d *Definition) Inport(name string) (PortSpec, bool) {
	return findPort(d.Inports, name)
}

// Outport returns the out port with the given name.
func (d *Definition) Outport(name string) (PortSpec, bool) {
	return findPort(d.Outports, name)
}

func findPort(ports []PortSpec, name string) (PortSpec, bool) {
	for _, p := range ports {
		if p.Name == name {
			if p.Type == "" {
				p.Type = ir.TypeAny
			}
			return p, true
		}
	}
	return PortSpec{}, false
}

// NewState returns the initial state for a new node of this type.
func (d *Definition) NewState() State {
	return d.newState()
}

// HasTick reports whether the component wants to run on every step.
func (d *Definition) HasTick() bool {
	return d.tick != nil
}

// Init runs the initializer. Components without one keep their state.
func (d *Definition) Init(ctx Context, st State) (State, []Emission, error) {
	if d.init == nil {
		return st, nil, nil
	}
	return d.init(ctx, st)
}

// Process hands one inbound packet to the component.
func (d *Definition) Process(ctx Context, st State, port string, p ir.Packet) (State, []Emission, error) {
	if d.process == nil {
		return st, nil, fmt.Errorf("component %s has no in ports", d.Name)
	}
	return d.process(ctx, st, port, p)
}

// Tick runs the per-step hook. Components without one keep their state.
func (d *Definition) Tick(ctx Context, st State) (State, []Emission, error) {
	if d.tick == nil {
		return st, nil, nil
	}
	return d.tick(ctx, st)
}

// unexpectedPort is returned by built-ins for ports they do not declare.
// The engine never routes such packets, so reaching it means a broken Definition.
func unexpectedPort(component, port string) error {
	return fmt.Errorf("%s: unexpected in port %q", component, port)
}
