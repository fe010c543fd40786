// Apcore is a declarative admission-scheduling engine for game
// subsystems.
//
// Subsystems propose rule invocations; the engine evaluates predicates
// against an immutable world snapshot, admits a conflict-free batch per
// tick, applies typed effects through a pure transition kernel, checks
// declared invariants, and commits the batch to an append-only event
// log. Replaying the log from the initial snapshot reproduces the live
// world exactly.
//
// Usage:
//
//	# Start the engine with default configuration
//	apcore run
//
//	# Start with custom configuration file
//	apcore run --config /path/to/config.yaml
//
//	# Validate rule files
//	apcore lint --file rules.yaml
//
//	# Replay an event log over an initial snapshot
//	apcore replay --initial world.json --rules rules/ --events data/events.db
//
//	# Show version information
//	apcore version
package main

func main() {
	Execute()
}
