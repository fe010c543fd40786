package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

// Validator checks declarative invariants against a snapshot. It runs on
// the post-effect snapshot of every tick; any violation triggers
// whole-batch rollback in the engine. The invariant set is swappable
// alongside the rule table for hot reload.
type Validator struct {
	mu         sync.RWMutex
	invariants []*ast.Invariant
	logger     *slog.Logger
}

// NewValidator creates a validator over the given invariants. A nil
// logger falls back to slog.Default.
func NewValidator(invariants []*ast.Invariant, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		invariants: invariants,
		logger:     logger.With("component", "engine.validator"),
	}
}

// ReplaceAll atomically swaps the invariant set.
func (v *Validator) ReplaceAll(invariants []*ast.Invariant) {
	v.mu.Lock()
	v.invariants = invariants
	v.mu.Unlock()
	v.logger.Info("invariant set replaced", "invariant_count", len(invariants))
}

// Check evaluates every invariant and returns all violations found.
func (v *Validator) Check(snap state.Snapshot) []Violation {
	v.mu.RLock()
	invariants := v.invariants
	v.mu.RUnlock()

	var violations []Violation
	for _, inv := range invariants {
		switch inv.Type {
		case ast.InvariantBounds:
			violations = append(violations, checkBounds(snap, inv)...)
		case ast.InvariantRequiredKeys:
			violations = append(violations, checkRequiredKeys(snap, inv)...)
		case ast.InvariantReference:
			violations = append(violations, checkReference(snap, inv)...)
		}
	}
	return violations
}

// expandPaths resolves an invariant path, expanding an "*" entity segment
// to every entity of the subsystem.
func expandPaths(snap state.Snapshot, p state.Path) []state.Path {
	if p.Entity() != "*" {
		return []state.Path{p}
	}
	sub := p.Subsystem()
	attr := p.Attribute()
	ids := snap.Entities(sub)
	out := make([]state.Path, 0, len(ids))
	for _, id := range ids {
		out = append(out, state.Path(sub+"."+id+"."+attr))
	}
	return out
}

func checkBounds(snap state.Snapshot, inv *ast.Invariant) []Violation {
	var out []Violation
	for _, path := range expandPaths(snap, inv.Path) {
		raw, found := snap.Lookup(path)
		if !found {
			continue
		}
		n, ok := toFloat64(raw)
		if !ok {
			continue
		}
		if n < inv.Min || n > inv.Max {
			out = append(out, Violation{
				Invariant: inv,
				Path:      path,
				Message:   fmt.Sprintf("%s = %v outside bounds [%v, %v]", path, n, inv.Min, inv.Max),
				Actual:    n,
			})
		}
	}
	return out
}

func checkRequiredKeys(snap state.Snapshot, inv *ast.Invariant) []Violation {
	var out []Violation
	for _, id := range snap.Entities(inv.Subsystem) {
		attrs, ok := snap.Entity(inv.Subsystem, id)
		if !ok {
			continue
		}
		for _, key := range inv.Keys {
			if _, present := attrs[key]; !present {
				path := state.Path(inv.Subsystem + "." + id + "." + key)
				out = append(out, Violation{
					Invariant: inv,
					Path:      path,
					Message:   fmt.Sprintf("entity %s.%s is missing required attribute %q", inv.Subsystem, id, key),
				})
			}
		}
	}
	return out
}

func checkReference(snap state.Snapshot, inv *ast.Invariant) []Violation {
	var out []Violation
	for _, path := range expandPaths(snap, inv.Path) {
		raw, found := snap.Lookup(path)
		if !found {
			continue
		}
		ref, ok := raw.(string)
		if !ok {
			out = append(out, Violation{
				Invariant: inv,
				Path:      path,
				Message:   fmt.Sprintf("%s must be a string reference, found %T", path, raw),
				Actual:    raw,
			})
			continue
		}
		if ref == "" {
			continue
		}
		if !snap.HasEntity(inv.RefSubsystem, ref) {
			out = append(out, Violation{
				Invariant: inv,
				Path:      path,
				Message:   fmt.Sprintf("%s references %q, which does not exist in %s", path, ref, inv.RefSubsystem),
				Actual:    ref,
			})
		}
	}
	return out
}
