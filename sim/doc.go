// Package sim provides the core discrete-event hockey game simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - generator.go: hazard rates, competing exponential clocks, sub-outcome resolution
//   - game.go: the state machine holding clock, score, strength state, period progression
//   - event.go: the tagged-union event records the engine emits
//
// # Architecture
//
// The sim package holds the single-run engine; orchestration and delivery
// live in sub-packages:
//   - sim/manager/: run lifecycle: admission, concurrency limiting, control ops
//   - sim/broadcast/: per-run fan-out with catch-up snapshots and backpressure isolation
//
// A run is driven cooperatively: the owning worker calls Game.Step in a
// loop, pacing between steps according to the configured mode. Everything
// within a run is strictly sequential; the only cross-run shared state is
// the manager's registry and each hub's subscriber set.
//
// # Determinism
//
// Every random draw flows through a PartitionedRNG derived from the run's
// seed, in a fixed per-step order. Identical (config, seed) inputs
// reproduce identical event sequences byte for byte, and pause/resume
// never consumes RNG state. This property is load-bearing and covered by
// tests; change draw order only with a migration plan for recorded seeds.
package sim
