package engine

import (
	"sort"
	"strings"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

// Invocation is one proposed firing of a rule with concrete symbolic
// bindings (for example "actor" → "player"). Invocations are transient:
// they exist for one tick's admission decision.
type Invocation struct {
	// RuleID names the rule to fire.
	RuleID string

	// Bindings resolve the rule's $symbols to entity ids.
	Bindings map[string]string

	// seq is the submission order within the tick, assigned by the
	// scheduler. It breaks priority ties deterministically.
	seq int
}

// Key returns the canonical identity of the invocation: rule id plus the
// sorted binding list. Two invocations with equal keys are duplicates.
func (inv Invocation) Key() string {
	names := make([]string, 0, len(inv.Bindings))
	for name := range inv.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(inv.RuleID)
	for _, name := range names {
		sb.WriteByte('|')
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(inv.Bindings[name])
	}
	return sb.String()
}

// BlockKind classifies why an invocation was blocked.
type BlockKind string

const (
	// BlockDuplicate marks the second and later submissions of an
	// identical (rule id, bindings) pair within one tick.
	BlockDuplicate BlockKind = "duplicate"

	// BlockUnknownRule marks an invocation naming an unregistered rule.
	BlockUnknownRule BlockKind = "unknown_rule"

	// BlockDisabled marks an invocation of a disabled rule.
	BlockDisabled BlockKind = "rule_disabled"

	// BlockRequirement marks a failed requires predicate.
	BlockRequirement BlockKind = "failed_requirement"

	// BlockConflict marks a holding conflicts predicate.
	BlockConflict BlockKind = "conflict"

	// BlockResource marks a footprint collision with an already admitted
	// higher-priority invocation.
	BlockResource BlockKind = "resource_conflict"

	// BlockCapacity marks a candidate beyond the per-tick cap. It was
	// never screened; resubmit it on a later tick.
	BlockCapacity BlockKind = "capacity"
)

// BlockedInvocation records one blocked candidate with a human-readable
// reason and, where applicable, the offending predicate and the actual
// value observed.
type BlockedInvocation struct {
	Invocation Invocation
	Kind       BlockKind
	Reason     string
	Predicate  *ast.Predicate // offending predicate, nil for non-predicate blocks
	Actual     any
	Expected   any
}

// AdmissionResult is the outcome of one tick's admission decision.
type AdmissionResult struct {
	// Admitted holds the admitted invocations in application order.
	Admitted []Invocation

	// Blocked holds every blocked invocation with its reason.
	Blocked []BlockedInvocation

	// Diagnostics records non-fatal evaluation notes, such as attribute
	// paths that resolved to a typed default.
	Diagnostics []Diagnostic
}

// Diagnostic is a non-fatal evaluation note. Missing attribute paths are
// a tolerated condition, recorded here rather than failing the predicate.
type Diagnostic struct {
	RuleID string
	Path   state.Path
	Note   string
}

// Explanation is the result of explaining a single predicate: whether it
// holds, the value observed, and the value the predicate wanted.
type Explanation struct {
	Holds    bool
	Actual   any
	Expected any
	Detail   string
}

// DryRun is the outcome of Engine.Explain: whether the invocation would
// be admitted on the current snapshot, and why not if it would not.
type DryRun struct {
	WouldAdmit bool
	Reason     string
}

// Violation records one invariant violated by a post-effect snapshot.
type Violation struct {
	Invariant *ast.Invariant
	Path      state.Path
	Message   string
	Actual    any
}

// TickResult is the outcome of one complete tick.
type TickResult struct {
	// Tick is the logical tick number this result belongs to.
	Tick uint64

	// Admission is the tick's admission decision.
	Admission AdmissionResult

	// Snapshot is the snapshot after the tick: the new value on commit,
	// the unchanged prior value on rollback.
	Snapshot state.Snapshot

	// RolledBack is true when validation failed and the whole batch was
	// discarded.
	RolledBack bool

	// Violations holds the invariant violations that caused a rollback.
	Violations []Violation
}
