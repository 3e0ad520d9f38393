// Package component defines component types and the registry that maps
// type names to them.
//
// A component is a small fixed-arity message transformer. Its Definition
// declares typed in and out ports and up to three callbacks:
//
//   - Init runs once at network start, after initial packets are delivered
//   - Process runs for every packet routed to one of its in ports
//   - Tick (optional) runs on every scheduler step, e.g. to watch the clock
//
// Callbacks are pure with respect to node state: they receive the current
// state and return the next one. The engine only commits the returned state
// when the callback succeeds, so a failing packet leaves the node as it was.
//
// Definitions are built with Define, which adapts callbacks over a concrete
// state type S to the untyped form the engine runs. Name lookup happens once,
// at load time; nothing is resolved by reflection at run time.
package component
