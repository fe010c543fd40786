// Package ast defines the Abstract Syntax Tree for declarative gameplay
// rules: predicates, effects, invariants, and the Rule that binds them.
//
// The AST is the single shared representation of every rule-driven
// gameplay subsystem (combat, inventory, dialogue, faction, quest). A thin
// loader (pkg/rules/parser) translates the external YAML authoring syntax
// into this AST; the engine never sees authoring text.
//
// # Core Types
//
// Rule: id, requires/conflicts predicates, effects, priority, footprint
// declarations and tags
//
// Predicate: tagged-variant condition node (FlagEquals, Compare,
// LocationEquals, PhaseAtLeast, All, Any, Not)
//
// Effect: typed state operation (set, add with clamp, list append/remove)
// against an attribute path
//
// Invariant: declarative snapshot invariant (numeric bounds, required
// keys, referential integrity) checked by the engine's validator
//
// Location: source position (file, line) preserved for error reporting
//
// All nodes are immutable once built; rules are data, not code, and may be
// replaced at runtime through the registry.
package ast
