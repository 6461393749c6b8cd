// Package harness drives an async queue through scripted scenarios and
// checks every port transaction against a reference model.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scripted_writes
//	description: "What this scenario validates"
//	capacity: 8
//	sync_stages: 2
//	seed: 7
//	reset_cycles: 2
//	domains:
//	  write: {frequency_hz: 2000000}
//	  read:  {frequency_hz: 1000000}
//	uart: {clks_per_bit: 4}
//	steps:
//	  - write: [0, 1, 2, 3]
//	  - read: 2
//	  - random: {rounds: 10}
//	  - reset: write
//	  - idle: 5
//	  - drain: true
//	assertions:
//	  - type: final_empty
//	  - type: accepted_count
//	    side: write
//	    count: 4
//
// # Execution
//
// Both domains are co-simulated with a domain.Scheduler, so a scenario
// always produces the same trace. On every edge the domain's port is ticked;
// a pending operation is then attempted on that edge.
//
// Each attempt is compared with the model:
//
//   - flag set, model agrees: expected rejection, recorded in the trace
//   - flag set, model disagrees: tolerated while the flag settles, then STALE_FLAG
//   - operation accepted while the model is full or empty: FALSE_NEGATIVE or UNDERFLOW
//   - dequeued value differs from the model: ORDER_MISMATCH
//
// The first error stops the run. Assertions are evaluated afterwards.
//
// # Deterministic Testing
//
// Traces are serialised as canonical JSON and digested, so golden files and
// stored runs can be compared byte for byte.
package harness
