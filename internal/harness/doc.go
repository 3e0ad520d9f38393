// Package harness runs conformance scenarios against the simulator.
//
// A scenario loads one graph onto a simulated board, drives time and input
// pins step by step, checks pin state along the way and finally asserts on
// the recorded delivery trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: blink
//	description: "LED on pin 13 toggles every 300ms"
//	program: |
//	  timer(Timer) OUT -> IN toggle(ToggleBoolean) OUT -> IN led(DigitalWrite)
//	  '300' -> INTERVAL timer()
//	  '13' -> PIN led()
//	board: uno                  # built-in name or CUE file, optional
//	setup:
//	  digital_outputs: { 13: true }
//	steps:
//	  - expect: { digital_outputs: { 13: false } }
//	  - advance: 301
//	    expect: { digital_outputs: { 13: true } }
//	assertions:
//	  - type: node_count
//	    count: 3
//	  - type: trace_count
//	    node: led
//	    port: IN
//	    count: 1
//
// program_file may replace program; it and a board file are resolved
// relative to the scenario file.
//
// # Steps
//
// Each step performs at most one action and may then check pin state:
//
//   - advance: move simulated time forward (steps the network; the
//     expectation is checked once it has settled)
//   - set_digital / set_analog: drive an input pin (does not step)
//   - tick: run one scheduler step at the current time
//
// # Assertion Types
//
//   - node_count: the loaded network has exactly count nodes
//   - trace_contains: some delivery to node[.port] carries value (or kind)
//   - trace_order: deliveries reach the listed node.PORT addresses in order
//   - trace_count: exactly count deliveries reached node[.port]
//   - no_failures: no processing failure was reported
//
// # Determinism
//
// Runs use an in-memory trace store with fixed run ids, and ordering comes
// from the network's logical clock, so the same scenario always produces a
// byte-identical canonical trace. RunWithGolden compares that trace against
// testdata/golden/<name>.golden.
package harness
