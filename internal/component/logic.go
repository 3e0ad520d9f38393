package component

import "github.com/roach88/microflo/internal/ir"

// ToggleBoolean flips its state on every inbound packet and emits the new
// value. The first packet therefore emits true.
func ToggleBoolean() *Definition {
	return Define(Spec[bool]{
		Name:        "ToggleBoolean",
		Description: "Flip a boolean on every packet",
		Inports:     []PortSpec{{Name: "IN", Type: ir.TypeAny}},
		Outports:    []PortSpec{{Name: "OUT", Type: ir.TypeBool}},
		Process: func(_ Context, state bool, port string, _ ir.Packet) (bool, []Emission, error) {
			if port != "IN" {
				return state, nil, unexpectedPort("ToggleBoolean", port)
			}
			state = !state
			return state, Emit("OUT", ir.Bool(state)), nil
		},
	})
}

// InvertBoolean emits the negation of every boolean it receives.
func InvertBoolean() *Definition {
	return Define(Spec[struct{}]{
		Name:        "InvertBoolean",
		Description: "Emit the negation of IN",
		Inports:     []PortSpec{{Name: "IN", Type: ir.TypeBool}},
		Outports:    []PortSpec{{Name: "OUT", Type: ir.TypeBool}},
		Process: func(_ Context, s struct{}, port string, p ir.Packet) (struct{}, []Emission, error) {
			if port != "IN" {
				return s, nil, unexpectedPort("InvertBoolean", port)
			}
			b, _ := p.AsBool()
			return s, Emit("OUT", ir.Bool(!b)), nil
		},
	})
}

// Forward passes every packet through unchanged.
func Forward() *Definition {
	return Define(Spec[struct{}]{
		Name:        "Forward",
		Description: "Pass packets through unchanged",
		Inports:     []PortSpec{{Name: "IN", Type: ir.TypeAny}},
		Outports:    []PortSpec{{Name: "OUT", Type: ir.TypeAny}},
		Process: func(_ Context, s struct{}, port string, p ir.Packet) (struct{}, []Emission, error) {
			if port != "IN" {
				return s, nil, unexpectedPort("Forward", port)
			}
			return s, Emit("OUT", p), nil
		},
	})
}

// Counter counts packets on IN and emits the running total. RESET sets the
// count back to zero and emits it.
func Counter() *Definition {
	return Define(Spec[int64]{
		Name:        "Counter",
		Description: "Count packets",
		Inports: []PortSpec{
			{Name: "IN", Type: ir.TypeAny},
			{Name: "RESET", Type: ir.TypeAny},
		},
		Outports: []PortSpec{{Name: "OUT", Type: ir.TypeInt}},
		Process: func(_ Context, count int64, port string, _ ir.Packet) (int64, []Emission, error) {
			switch port {
			case "IN":
				count++
			case "RESET":
				count = 0
			default:
				return count, nil, unexpectedPort("Counter", port)
			}
			return count, Emit("OUT", ir.Int(count)), nil
		},
	})
}
