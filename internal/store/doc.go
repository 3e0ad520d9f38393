// Package store provides SQLite-backed storage for simulation traces.
//
// The store is an append-only log with three tables:
//   - runs: one row per simulated program (UUIDv7 id, program text, board)
//   - deliveries: every packet handed to a node, keyed by (run_id, seq)
//   - failures: processing errors reported during the run
//
// # Ordering
//
// Deliveries are ordered by seq, the network's logical clock, never by
// time_ms: many packets share one simulated millisecond. Queries always end
// in ORDER BY seq ASC (or id ASC for failures) so reads are deterministic.
//
// Packets are stored as canonical JSON (see ir.MarshalCanonical), so equal
// traces are byte-identical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
