package component

import (
	"fmt"

	"github.com/roach88/microflo/internal/ir"
)

type timerState struct {
	interval int64 // ms; zero disables firing
	last     int64 // time of the last firing or re-arm
}

// Timer emits a bang on OUT every INTERVAL milliseconds.
//
// It re-arms at a fixed period: a tick that finds two or more intervals
// elapsed still fires once and drops the excess.
func Timer() *Definition {
	return Define(Spec[timerState]{
		Name:        "Timer",
		Description: "Emit a bang every INTERVAL milliseconds",
		Inports: []PortSpec{
			{Name: "INTERVAL", Type: ir.TypeInt, Description: "period in milliseconds"},
		},
		Outports: []PortSpec{
			{Name: "OUT", Type: ir.TypeBang},
		},
		Init: func(ctx Context, s timerState) (timerState, []Emission, error) {
			s.last = ctx.Now()
			return s, nil, nil
		},
		Process: func(ctx Context, s timerState, port string, p ir.Packet) (timerState, []Emission, error) {
			if port != "INTERVAL" {
				return s, nil, unexpectedPort("Timer", port)
			}
			n, _ := p.AsInt()
			if n < 0 {
				return s, nil, fmt.Errorf("Timer: negative interval %d", n)
			}
			s.interval = n
			s.last = ctx.Now()
			return s, nil, nil
		},
		Tick: func(ctx Context, s timerState) (timerState, []Emission, error) {
			if s.interval <= 0 {
				return s, nil, nil
			}
			now := ctx.Now()
			if now-s.last < s.interval {
				return s, nil, nil
			}
			s.last = now
			return s, Emit("OUT", ir.Bang()), nil
		},
	})
}
