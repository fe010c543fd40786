package ast

import "questforge/apcore/pkg/state"

// EffectOp identifies the typed state operation an Effect performs.
type EffectOp string

const (
	// EffectSet writes the value at the path, replacing any previous value.
	EffectSet EffectOp = "set"

	// EffectAdd adds a numeric delta to the value at the path. A missing
	// attribute reads as 0 before the add. The result is clamped to the
	// declared range when one is present.
	EffectAdd EffectOp = "add"

	// EffectListAppend appends the value to the list at the path, creating
	// the list if absent.
	EffectListAppend EffectOp = "list_append"

	// EffectListRemove removes every element equal to the value from the
	// list at the path. Removing from a missing list is a no-op.
	EffectListRemove EffectOp = "list_remove"
)

// ClampRange bounds the result of an EffectAdd.
type ClampRange struct {
	Min float64
	Max float64
}

// Effect is one typed operation against an attribute path. Effects apply
// in declaration order inside a rule and in admission order across rules.
type Effect struct {
	Op       EffectOp
	Path     state.Path // attribute path (possibly a $binding template)
	Value    any        // operand: number for add, element for list ops
	Clamp    *ClampRange
	Location Location
}
