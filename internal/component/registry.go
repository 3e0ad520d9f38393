package component

import (
	"fmt"
	"slices"
	"sync"
)

// UnknownComponentError is returned when a graph names a component type that
// is not registered.
type UnknownComponentError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown component %q", e.Name)
}

// Registry maps component type names to definitions.
//
// Thread-safety: safe for concurrent use. Registration normally happens once
// at startup; lookups happen at graph load time.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// NewDefaultRegistry creates a registry holding every built-in component.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Builtins()...)
	return r
}

// Register adds a definition. Names must be unique.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("register: nil definition")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("register: duplicate component %s", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister registers definitions and panics on the first error.
// Intended for package-level setup of known-good built-ins.
func (r *Registry) MustRegister(defs ...*Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the definition for a component type.
func (r *Registry) Lookup(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, &UnknownComponentError{Name: name}
	}
	return def, nil
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtins returns fresh definitions of every built-in component.
func Builtins() []*Definition {
	return []*Definition{
		Timer(),
		ToggleBoolean(),
		DigitalWrite(),
		DigitalRead(),
		AnalogWrite(),
		Forward(),
		InvertBoolean(),
		Counter(),
	}
}
