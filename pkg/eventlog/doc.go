// Package eventlog provides the append-only record of committed rule
// invocations - the authoritative history of the world.
//
// Every committed tick appends one Event per admitted invocation.
// Replaying the log from the initial snapshot through the transition
// kernel reproduces the live snapshot exactly; that equality is the
// engine's own correctness self-test.
//
// Two backends implement the Log interface: MemoryLog for tests and
// ephemeral worlds, and SQLiteLog for durable history (WAL mode,
// prepared statements, schema versioning). Retention pairs a periodic
// snapshot checkpoint with pruning of the events it supersedes, so
// replay equivalence is preserved from the stored checkpoint.
package eventlog
