// Package store provides SQLite-backed storage for recorded queue runs.
//
// A run is one execution of a scenario: its configuration, verdict, trace
// digest and the scenario source it was produced from. Each run owns the
// ordered list of transactions (accepted and rejected enqueues and dequeues,
// resets) observed by the harness monitors.
//
// # Ordering
//
//   - Runs are ordered by seq, a logical counter assigned on insert
//   - Transactions are ordered by (run_id, seq), the monitor sequence number
//   - Wall time is never stored or used for ordering
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
