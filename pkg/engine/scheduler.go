package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"questforge/apcore/pkg/state"
)

// Scheduler resolves one tick's candidate invocations into admitted and
// blocked sets. It owns the central admission algorithm:
//
//  1. reject duplicate (rule id, bindings) pairs
//  2. screen requires (all must hold) and conflicts (none may hold)
//  3. order survivors by priority descending, submission order ascending
//  4. walk the ordered list with a claimed-footprint set, admitting only
//     candidates whose resolved write set is disjoint from everything
//     claimed and whose read set is disjoint from claimed writes
//
// The scheduler never mutates state; it only decides.
type Scheduler struct {
	evaluator *Evaluator
	logger    *slog.Logger
}

// NewScheduler creates a scheduler using the given evaluator.
func NewScheduler(evaluator *Evaluator, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if evaluator == nil {
		evaluator = NewEvaluator(logger)
	}
	return &Scheduler{
		evaluator: evaluator,
		logger:    logger.With("component", "engine.scheduler"),
	}
}

// candidate carries a screened invocation to the footprint walk.
type candidate struct {
	inv      Invocation
	priority int
	read     []state.Path
	write    []state.Path
}

// Admit runs the admission algorithm for one tick. An empty candidate
// list yields an empty result, not an error. Callers pass a point-in-time
// rule view so the tick's later phases resolve the same rule versions.
func (s *Scheduler) Admit(snap state.Snapshot, rules RuleSource, candidates []Invocation) AdmissionResult {
	var result AdmissionResult
	if len(candidates) == 0 {
		return result
	}

	seen := make(map[string]struct{}, len(candidates))
	survivors := make([]candidate, 0, len(candidates))

	for i, inv := range candidates {
		inv.seq = i

		key := inv.Key()
		if _, dup := seen[key]; dup {
			result.Blocked = append(result.Blocked, BlockedInvocation{
				Invocation: inv,
				Kind:       BlockDuplicate,
				Reason:     fmt.Sprintf("duplicate invocation of %s", inv.RuleID),
			})
			continue
		}
		seen[key] = struct{}{}

		entry, ok := rules.Lookup(inv.RuleID)
		if !ok {
			result.Blocked = append(result.Blocked, BlockedInvocation{
				Invocation: inv,
				Kind:       BlockUnknownRule,
				Reason:     fmt.Sprintf("unknown rule %q", inv.RuleID),
			})
			continue
		}
		if !entry.Rule.IsEnabled() {
			result.Blocked = append(result.Blocked, BlockedInvocation{
				Invocation: inv,
				Kind:       BlockDisabled,
				Reason:     fmt.Sprintf("rule %q is disabled", inv.RuleID),
			})
			continue
		}

		if blocked := s.screen(snap, entry, inv, &result.Diagnostics); blocked != nil {
			result.Blocked = append(result.Blocked, *blocked)
			continue
		}

		read, err := resolvePaths(entry.Footprint.Read, inv.Bindings)
		if err == nil {
			var write []state.Path
			write, err = resolvePaths(entry.Footprint.Write, inv.Bindings)
			if err == nil {
				survivors = append(survivors, candidate{
					inv:      inv,
					priority: entry.Rule.Priority,
					read:     read,
					write:    write,
				})
				continue
			}
		}
		result.Blocked = append(result.Blocked, BlockedInvocation{
			Invocation: inv,
			Kind:       BlockRequirement,
			Reason:     fmt.Sprintf("unresolved footprint: %v", err),
		})
	}

	// Stable sort keyed on priority only: equal priorities keep their
	// submission order.
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].priority > survivors[j].priority
	})

	claimedWrite := make(map[state.Path]string)
	claimedRead := make(map[state.Path]string)

	for _, c := range survivors {
		if path, holder, ok := footprintCollision(c, claimedWrite, claimedRead); ok {
			result.Blocked = append(result.Blocked, BlockedInvocation{
				Invocation: c.inv,
				Kind:       BlockResource,
				Reason:     fmt.Sprintf("resource_conflict: %s held by %s", path, holder),
			})
			continue
		}

		for _, p := range c.write {
			claimedWrite[p] = c.inv.RuleID
		}
		for _, p := range c.read {
			claimedRead[p] = c.inv.RuleID
		}
		result.Admitted = append(result.Admitted, c.inv)
	}

	s.logger.Debug("admission resolved",
		"candidates", len(candidates),
		"admitted", len(result.Admitted),
		"blocked", len(result.Blocked),
	)

	return result
}

// screen evaluates requires and conflicts for one candidate. It returns
// nil when the candidate survives screening.
func (s *Scheduler) screen(snap state.Snapshot, entry *RegisteredRule, inv Invocation, diags *[]Diagnostic) *BlockedInvocation {
	for _, req := range entry.Rule.Requires {
		ex, err := s.evaluator.Explain(req, snap, inv.Bindings, inv.RuleID, diags)
		if err != nil {
			return &BlockedInvocation{
				Invocation: inv,
				Kind:       BlockRequirement,
				Reason:     fmt.Sprintf("failed requirement: %v", err),
				Predicate:  req,
			}
		}
		if !ex.Holds {
			return &BlockedInvocation{
				Invocation: inv,
				Kind:       BlockRequirement,
				Reason:     fmt.Sprintf("failed requirement: %s (actual %v)", req, ex.Actual),
				Predicate:  req,
				Actual:     ex.Actual,
				Expected:   ex.Expected,
			}
		}
	}

	for _, con := range entry.Rule.Conflicts {
		ex, err := s.evaluator.Explain(con, snap, inv.Bindings, inv.RuleID, diags)
		if err != nil {
			return &BlockedInvocation{
				Invocation: inv,
				Kind:       BlockConflict,
				Reason:     fmt.Sprintf("conflict check failed: %v", err),
				Predicate:  con,
			}
		}
		if ex.Holds {
			return &BlockedInvocation{
				Invocation: inv,
				Kind:       BlockConflict,
				Reason:     fmt.Sprintf("conflict: %s (actual %v)", con, ex.Actual),
				Predicate:  con,
				Actual:     ex.Actual,
				Expected:   ex.Expected,
			}
		}
	}

	return nil
}

// footprintCollision checks a candidate against the claimed sets. A
// candidate collides when its write set intersects any claimed path, or
// its read set intersects a claimed write.
func footprintCollision(c candidate, claimedWrite, claimedRead map[state.Path]string) (state.Path, string, bool) {
	for _, p := range c.write {
		if holder, ok := claimedWrite[p]; ok {
			return p, holder, true
		}
		if holder, ok := claimedRead[p]; ok {
			return p, holder, true
		}
	}
	for _, p := range c.read {
		if holder, ok := claimedWrite[p]; ok {
			return p, holder, true
		}
	}
	return "", "", false
}
