package ast

import (
	"fmt"
	"strings"

	"questforge/apcore/pkg/state"
)

// PredicateType discriminates the variants of a Predicate node.
type PredicateType string

const (
	// PredicateFlagEquals tests a boolean attribute against an expected value.
	// A missing attribute reads as false.
	PredicateFlagEquals PredicateType = "flag_equals"

	// PredicateCompare tests a numeric attribute with a comparison operator.
	// A missing attribute reads as 0.
	PredicateCompare PredicateType = "compare"

	// PredicateLocationEquals tests a string-valued location/containment
	// attribute for equality. A missing attribute reads as "".
	PredicateLocationEquals PredicateType = "location_equals"

	// PredicatePhaseAtLeast tests an ordinal attribute against a minimum
	// phase. A missing attribute reads as 0.
	PredicatePhaseAtLeast PredicateType = "phase_at_least"

	// PredicateAll holds when every child holds.
	PredicateAll PredicateType = "all"

	// PredicateAny holds when at least one child holds.
	PredicateAny PredicateType = "any"

	// PredicateNot holds when its single child does not.
	PredicateNot PredicateType = "not"
)

// Operator is a numeric comparison operator for Compare predicates.
type Operator string

const (
	OperatorEqual        Operator = "=="
	OperatorNotEqual     Operator = "!="
	OperatorLessThan     Operator = "<"
	OperatorGreaterThan  Operator = ">"
	OperatorLessEqual    Operator = "<="
	OperatorGreaterEqual Operator = ">="
)

// Predicate is a single condition node. Leaf variants reference one
// attribute path (possibly a $binding template); composite variants hold
// children and ignore Path/Operator/Value.
type Predicate struct {
	Type     PredicateType
	Path     state.Path   // attribute path (leaf variants)
	Operator Operator     // comparison operator (Compare only)
	Value    any          // expected value (leaf variants)
	Children []*Predicate // child predicates (All/Any/Not)
	Location Location
}

// IsComposite returns true for All/Any/Not nodes.
func (p *Predicate) IsComposite() bool {
	return p.Type == PredicateAll || p.Type == PredicateAny || p.Type == PredicateNot
}

// String renders the predicate for block reasons and diagnostics.
func (p *Predicate) String() string {
	switch p.Type {
	case PredicateFlagEquals:
		return fmt.Sprintf("flag %s == %v", p.Path, p.Value)
	case PredicateCompare:
		return fmt.Sprintf("%s %s %v", p.Path, p.Operator, p.Value)
	case PredicateLocationEquals:
		return fmt.Sprintf("location %s == %v", p.Path, p.Value)
	case PredicatePhaseAtLeast:
		return fmt.Sprintf("phase %s >= %v", p.Path, p.Value)
	case PredicateAll, PredicateAny, PredicateNot:
		parts := make([]string, len(p.Children))
		for i, c := range p.Children {
			parts[i] = c.String()
		}
		return fmt.Sprintf("%s(%s)", p.Type, strings.Join(parts, ", "))
	default:
		return string(p.Type)
	}
}

// Paths appends every attribute path referenced by this predicate tree.
func (p *Predicate) Paths(into []state.Path) []state.Path {
	if p == nil {
		return into
	}
	if !p.IsComposite() {
		return append(into, p.Path)
	}
	for _, child := range p.Children {
		into = child.Paths(into)
	}
	return into
}
