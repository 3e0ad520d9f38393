// Package compiler turns FBP graph text into a runnable engine.Network.
//
// The accepted text is the small FBP subset microflo programs use:
//
//	timer(Timer) OUT -> IN toggle(ToggleBoolean) OUT -> IN led(DigitalWrite)
//	'300' -> INTERVAL timer()
//	'13' -> PIN led()
//
// Parse checks syntax only and returns a Graph. Load additionally resolves
// component types against a registry and builds the network; it never
// starts execution and never returns a partially built network.
package compiler
