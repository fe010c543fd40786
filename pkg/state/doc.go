// Package state provides the immutable world snapshot that the admission
// engine evaluates and transforms.
//
// A Snapshot is a three-level mapping: subsystem → entity id → attribute
// map. Snapshots are never mutated in place; every write produces a new
// Snapshot value that structurally shares every subsystem and entity that
// the write did not touch. This makes publishing a snapshot to concurrent
// readers a single value assignment, and makes whole-batch rollback a
// no-op (the previous value is simply kept).
//
// Attributes are addressed by dotted Path values of the form
// "subsystem.entity.attribute". A path segment starting with '$' is a
// symbolic binding (for example "combat.$actor.hp") that is resolved
// against an invocation context before use.
//
// # Basic Usage
//
//	snap := state.New(map[string]map[string]map[string]any{
//	    "combat": {"player": {"hp": 80.0}},
//	})
//
//	next, err := snap.With("combat.player.hp", 75.0)
//	// snap still holds hp=80; next holds hp=75.
package state
