package component

import (
	"errors"
	"fmt"

	"github.com/roach88/microflo/internal/ir"
)

// errNoPin is returned when a pin component receives a value before PIN.
var errNoPin = errors.New("no pin configured")

type pinState struct {
	pin        int
	configured bool
}

func (s pinState) configure(component string, p ir.Packet) (pinState, error) {
	n, _ := p.AsInt()
	if n < 0 {
		return s, fmt.Errorf("%s: negative pin %d", component, n)
	}
	s.pin = int(n)
	s.configured = true
	return s, nil
}

// DigitalWrite drives a digital output pin with the booleans it receives.
// At network start it drives its configured pin low.
func DigitalWrite() *Definition {
	return Define(Spec[pinState]{
		Name:        "DigitalWrite",
		Description: "Write booleans to a digital output pin",
		Inports: []PortSpec{
			{Name: "IN", Type: ir.TypeBool},
			{Name: "PIN", Type: ir.TypeInt},
		},
		Init: func(ctx Context, s pinState) (pinState, []Emission, error) {
			if !s.configured {
				return s, nil, nil
			}
			if err := ctx.IO.DigitalWrite(s.pin, false); err != nil {
				return s, nil, fmt.Errorf("DigitalWrite: %w", err)
			}
			return s, nil, nil
		},
		Process: func(ctx Context, s pinState, port string, p ir.Packet) (pinState, []Emission, error) {
			switch port {
			case "PIN":
				next, err := s.configure("DigitalWrite", p)
				return next, nil, err
			case "IN":
				if !s.configured {
					return s, nil, fmt.Errorf("DigitalWrite: %w", errNoPin)
				}
				v, _ := p.AsBool()
				if err := ctx.IO.DigitalWrite(s.pin, v); err != nil {
					return s, nil, fmt.Errorf("DigitalWrite: %w", err)
				}
				return s, nil, nil
			default:
				return s, nil, unexpectedPort("DigitalWrite", port)
			}
		},
	})
}

type digitalReadState struct {
	pinState
	last  bool
	known bool
}

// DigitalRead samples a digital input pin. It emits the level on every
// TRIGGER packet, and on every tick where the level changed.
func DigitalRead() *Definition {
	return Define(Spec[digitalReadState]{
		Name:        "DigitalRead",
		Description: "Read a digital input pin",
		Inports: []PortSpec{
			{Name: "PIN", Type: ir.TypeInt},
			{Name: "TRIGGER", Type: ir.TypeAny},
		},
		Outports: []PortSpec{{Name: "OUT", Type: ir.TypeBool}},
		Process: func(ctx Context, s digitalReadState, port string, p ir.Packet) (digitalReadState, []Emission, error) {
			switch port {
			case "PIN":
				ps, err := s.configure("DigitalRead", p)
				if err != nil {
					return s, nil, err
				}
				s.pinState = ps
				s.known = false
				return s, nil, nil
			case "TRIGGER":
				if !s.configured {
					return s, nil, fmt.Errorf("DigitalRead: %w", errNoPin)
				}
				v, err := ctx.IO.DigitalRead(s.pin)
				if err != nil {
					return s, nil, fmt.Errorf("DigitalRead: %w", err)
				}
				s.last, s.known = v, true
				return s, Emit("OUT", ir.Bool(v)), nil
			default:
				return s, nil, unexpectedPort("DigitalRead", port)
			}
		},
		Tick: func(ctx Context, s digitalReadState) (digitalReadState, []Emission, error) {
			if !s.configured {
				return s, nil, nil
			}
			v, err := ctx.IO.DigitalRead(s.pin)
			if err != nil {
				return s, nil, fmt.Errorf("DigitalRead: %w", err)
			}
			if s.known && v == s.last {
				return s, nil, nil
			}
			s.last, s.known = v, true
			return s, Emit("OUT", ir.Bool(v)), nil
		},
	})
}

// AnalogWrite drives a PWM output with the integers it receives.
func AnalogWrite() *Definition {
	return Define(Spec[pinState]{
		Name:        "AnalogWrite",
		Description: "Write integers to a PWM output pin",
		Inports: []PortSpec{
			{Name: "IN", Type: ir.TypeInt},
			{Name: "PIN", Type: ir.TypeInt},
		},
		Process: func(ctx Context, s pinState, port string, p ir.Packet) (pinState, []Emission, error) {
			switch port {
			case "PIN":
				next, err := s.configure("AnalogWrite", p)
				return next, nil, err
			case "IN":
				if !s.configured {
					return s, nil, fmt.Errorf("AnalogWrite: %w", errNoPin)
				}
				v, _ := p.AsInt()
				if err := ctx.IO.AnalogWrite(s.pin, int(v)); err != nil {
					return s, nil, fmt.Errorf("AnalogWrite: %w", err)
				}
				return s, nil, nil
			default:
				return s, nil, unexpectedPort("AnalogWrite", port)
			}
		},
	})
}
