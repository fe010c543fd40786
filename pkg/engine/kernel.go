package engine

import (
	"fmt"
	"reflect"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

// Apply is the transition kernel: a pure function applying the admitted
// invocations' effects, in admission order, to produce the next snapshot.
// It reads no clock and no randomness, so identical inputs always produce
// an identical snapshot. The input snapshot is never modified. The rule
// source must be the same view that admitted the invocations.
func Apply(snap state.Snapshot, admitted []Invocation, rules RuleSource) (state.Snapshot, error) {
	next := snap
	for _, inv := range admitted {
		entry, ok := rules.Lookup(inv.RuleID)
		if !ok {
			return state.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownRule, inv.RuleID)
		}
		for i, effect := range entry.Rule.Effects {
			var err error
			next, err = applyEffect(next, effect, inv.Bindings)
			if err != nil {
				return state.Snapshot{}, fmt.Errorf("rule %s effect %d: %w", inv.RuleID, i, err)
			}
		}
	}
	return next, nil
}

// applyEffect applies one typed operation, returning the new snapshot.
func applyEffect(snap state.Snapshot, effect *ast.Effect, bindings map[string]string) (state.Snapshot, error) {
	path, err := effect.Path.Resolve(bindings)
	if err != nil {
		return state.Snapshot{}, err
	}

	switch effect.Op {
	case ast.EffectSet:
		return snap.With(path, effect.Value)

	case ast.EffectAdd:
		delta, ok := toFloat64(effect.Value)
		if !ok {
			return state.Snapshot{}, fmt.Errorf("add effect on %q requires a numeric value, got %T", path, effect.Value)
		}
		base := 0.0
		if raw, found := snap.Lookup(path); found {
			if n, ok := toFloat64(raw); ok {
				base = n
			}
		}
		result := base + delta
		if effect.Clamp != nil {
			if result < effect.Clamp.Min {
				result = effect.Clamp.Min
			}
			if result > effect.Clamp.Max {
				result = effect.Clamp.Max
			}
		}
		return snap.With(path, result)

	case ast.EffectListAppend:
		list := listAt(snap, path)
		list = append(list, effect.Value)
		return snap.With(path, list)

	case ast.EffectListRemove:
		list := listAt(snap, path)
		kept := make([]any, 0, len(list))
		for _, elem := range list {
			if !valueEqual(elem, effect.Value) {
				kept = append(kept, elem)
			}
		}
		return snap.With(path, kept)

	default:
		return state.Snapshot{}, fmt.Errorf("unknown effect op %q", effect.Op)
	}
}

// listAt reads the list at a path, treating missing or non-list values as
// an empty list.
func listAt(snap state.Snapshot, path state.Path) []any {
	raw, found := snap.Lookup(path)
	if !found {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	return list
}

// valueEqual compares list elements, treating all numeric types as
// float64 so authored ints and replayed floats match.
func valueEqual(a, b any) bool {
	if an, ok := toFloat64(a); ok {
		if bn, ok := toFloat64(b); ok {
			return an == bn
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
