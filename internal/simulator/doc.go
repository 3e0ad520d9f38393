// Package simulator hosts a graph on a simulated board.
//
// A Simulator owns one SimulatedIO and at most one Network. The host drives
// time through IO().AdvanceTime; every time change steps the network and
// then fires WaitForChange observers once it is quiescent:
//
//	sim := simulator.New(component.NewDefaultRegistry())
//	if err := sim.Start(ctx); err != nil { ... }
//	defer sim.Stop()
//
//	err := sim.UploadFBP(program, func() { ... })
//	sim.IO().AdvanceTime(301)
//	sim.IO().WaitForChange(func() {
//		on := sim.IO().State().DigitalOutputs[13]
//	})
//
// Simulators share no state with each other.
package simulator
