// Package engine implements the unified rule admission engine: one
// evaluation, scheduling, and transition core shared by every rule-driven
// gameplay subsystem instead of five parallel ad-hoc copies.
//
// # Architecture
//
// The engine is layered, leaf to root:
//
//  1. Evaluator - pure predicate evaluation against a snapshot
//  2. Registry - authoritative rule table with registration-time footprint
//     analysis, hot-swappable as a whole
//  3. Scheduler - per-tick admission: requires/conflicts screening,
//     priority ordering, claimed-footprint conflict resolution
//  4. Kernel - pure application of admitted effects to produce the next
//     snapshot
//  5. Validator - declarative invariant checks with whole-batch rollback
//  6. Engine - the owning adapter holding the current snapshot and the
//     event log, driving PROPOSE → EVALUATE → SCHEDULE → APPLY → VALIDATE
//     → COMMIT/ROLLBACK per tick
//
// # Tick Flow
//
//	candidates (caller-chosen rule ids + bindings)
//	       ↓
//	Scheduler.Admit → AdmissionResult{admitted, blocked}
//	       ↓
//	Apply(snapshot, admitted) → next snapshot
//	       ↓
//	Validator.Check(next)
//	  ok        → append events, publish next snapshot
//	  violation → discard batch, keep prior snapshot
//
// # Basic Usage
//
//	reg := engine.NewRegistry(nil, nil)
//	for _, r := range doc.Rules {
//	    if err := reg.Register(r); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
//	eng, err := engine.NewEngine(engine.DefaultConfig(), initial, eventLog, nil)
//	...
//	result, err := eng.Tick(ctx, candidates)
//
// # Concurrency
//
// Exactly one tick executes at a time. Candidates may be submitted from
// any goroutine through Submit; the Run loop drains the queue once per
// tick. The current snapshot is published atomically at commit, so
// concurrent readers always observe a complete tick, never a partial one.
package engine
