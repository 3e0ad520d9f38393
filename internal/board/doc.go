// Package board is the IO capability surface that components use to touch
// hardware: digital and analog pins plus a millisecond clock.
//
// Components only ever see the IO interface. A real microcontroller backend
// implements it against registers and interrupts; SimulatedIO implements it
// against an in-memory State so host tests can preset pins, advance time
// deterministically and observe when the network has settled.
//
// # Time
//
// Simulated time never moves on its own. The host calls AdvanceTime (or a
// simulator ticker does), which updates Now and then runs the stepper hook
// so time-driven components observe the new time within the same tick.
// After the stepper returns the network is quiescent and settle observers
// registered with WaitForChange fire.
package board
