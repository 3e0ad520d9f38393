package board

import "maps"

// State is the complete simulated pin and clock state.
type State struct {
	DigitalOutputs map[int]bool `json:"digital_outputs"`
	DigitalInputs  map[int]bool `json:"digital_inputs"`
	AnalogOutputs  map[int]int  `json:"analog_outputs"`
	AnalogInputs   map[int]int  `json:"analog_inputs"`
	CurrentTimeMs  int64        `json:"current_time_ms"`
}

// NewState returns a State with all maps allocated and time at zero.
func NewState() State {
	return State{
		DigitalOutputs: make(map[int]bool),
		DigitalInputs:  make(map[int]bool),
		AnalogOutputs:  make(map[int]int),
		AnalogInputs:   make(map[int]int),
	}
}

// Clone returns a deep copy so callers can hold snapshots across ticks.
func (s State) Clone() State {
	c := State{
		DigitalOutputs: maps.Clone(s.DigitalOutputs),
		DigitalInputs:  maps.Clone(s.DigitalInputs),
		AnalogOutputs:  maps.Clone(s.AnalogOutputs),
		AnalogInputs:   maps.Clone(s.AnalogInputs),
		CurrentTimeMs:  s.CurrentTimeMs,
	}
	// maps.Clone(nil) returns nil; keep snapshots writable
	if c.DigitalOutputs == nil {
		c.DigitalOutputs = make(map[int]bool)
	}
	if c.DigitalInputs == nil {
		c.DigitalInputs = make(map[int]bool)
	}
	if c.AnalogOutputs == nil {
		c.AnalogOutputs = make(map[int]int)
	}
	if c.AnalogInputs == nil {
		c.AnalogInputs = make(map[int]int)
	}
	return c
}
