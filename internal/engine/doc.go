// Package engine implements the microflo graph execution engine.
//
// A Network holds nodes (instances of component definitions), the
// connections between their ports, initial information packets (IIPs) and
// a FIFO message queue. Execution is driven entirely by messages.
//
// ARCHITECTURE:
//
// Cooperative, single-threaded scheduler:
// A node's callback runs to completion before the next message is handled;
// no two nodes ever run concurrently, so node state needs no locking. The
// Network itself is not safe for concurrent use; the simulator serializes
// access to it.
//
// Processing Flow:
//  1. Start enqueues IIPs in node-declaration order and drains the queue
//  2. Start runs every node's initializer in declaration order and drains again
//  3. Each Step drains leftovers, runs Tick on every ticking node, drains again
//  4. Draining pops the head message, runs the destination's Process and
//     appends its emissions to the tail (strict FIFO, no priorities)
//
// ERROR HANDLING: a failing callback aborts only that message. The node keeps
// its previous state, the failure goes to observers and the log, and the
// remaining messages still drain ("log and continue").
//
// TERMINATION: a self-feeding graph could drain forever. Every Start and
// Step call carries a delivery budget (WithMaxSteps); exhausting it discards
// the queue and reports a StepsExceededError.
package engine
