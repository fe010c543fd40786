// Package parser translates the external YAML rule-authoring syntax into
// the shared predicate/effect AST (pkg/rules/ast).
//
// This is the "thin loader" boundary: gameplay authors write YAML, the
// engine only ever sees AST values. Any other authoring front end can be
// supported by producing the same AST.
//
// # File Format
//
//	ruleset: dungeon-core
//	version: 1
//	rules:
//	  - id: open_door
//	    priority: 10
//	    tags: [world]
//	    requires:
//	      - not:
//	          flag: world.$door.locked
//	    effects:
//	      - set: {path: world.$door.open, value: true}
//	invariants:
//	  - bounds: {path: inventory.*.gold, min: 0, max: 9999}
//
// Each predicate is a single-key mapping choosing the variant: flag,
// compare, location, phase, all, any, or not. Each effect is a single-key
// mapping choosing the operation: set, add, append, or remove.
//
// Parsing accumulates every problem into an ErrorList instead of stopping
// at the first, so authors can fix a whole file per pass.
package parser
