package ast

import "questforge/apcore/pkg/state"

// Rule is one declarative state-changing operation. Rules are immutable
// once registered and addressable by ID; they are reloaded wholesale, not
// edited in place.
type Rule struct {
	// ID is the unique rule identifier.
	ID string

	// Description is a human-readable summary for authors and diagnostics.
	Description string

	// Enabled gates the rule without unregistering it. Rules are enabled
	// by default unless the author disables them.
	Enabled bool

	// Requires are ordered preconditions; all must hold for admission.
	Requires []*Predicate

	// Conflicts are veto predicates; any that holds blocks admission.
	Conflicts []*Predicate

	// Effects are the ordered typed operations applied on admission.
	Effects []*Effect

	// Priority orders candidates within a tick (higher first). Ties are
	// broken by submission order.
	Priority int

	// ReadSet and WriteSet are the author-declared footprints. When
	// present they must be supersets of the computed footprints; the
	// registry rejects narrower declarations.
	ReadSet  []state.Path
	WriteSet []state.Path

	// Tags classify the rule for registry listing ("combat", "quest", ...).
	Tags []string

	// Location is the authoring-source position of the rule.
	Location Location
}

// IsEnabled reports whether the rule participates in admission.
func (r *Rule) IsEnabled() bool { return r.Enabled }

// HasTag reports whether the rule carries the given tag.
func (r *Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EffectPaths appends the attribute path of every effect.
func (r *Rule) EffectPaths(into []state.Path) []state.Path {
	for _, e := range r.Effects {
		into = append(into, e.Path)
	}
	return into
}

// PredicatePaths appends every path referenced by requires and conflicts.
func (r *Rule) PredicatePaths(into []state.Path) []state.Path {
	for _, p := range r.Requires {
		into = p.Paths(into)
	}
	for _, p := range r.Conflicts {
		into = p.Paths(into)
	}
	return into
}
