package engine

import (
	"sort"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

// Footprint is the set of attribute path templates a rule touches: every
// path referenced by requires/conflicts (read) and every path targeted by
// an effect (write). Footprints are computed once at registration time,
// never in the per-tick hot path.
type Footprint struct {
	Read  []state.Path
	Write []state.Path
}

// ComputeFootprint derives a rule's footprint from its AST.
func ComputeFootprint(rule *ast.Rule) Footprint {
	return Footprint{
		Read:  dedupePaths(rule.PredicatePaths(nil)),
		Write: dedupePaths(rule.EffectPaths(nil)),
	}
}

// validateDeclared checks that author-declared read/write sets, when
// present, are supersets of the computed ones. A narrower declaration
// would silently mask a real conflict, so it is a hard error.
func validateDeclared(rule *ast.Rule, computed Footprint) error {
	if len(rule.ReadSet) > 0 {
		if missing := missingPaths(rule.ReadSet, computed.Read); len(missing) > 0 {
			return &FootprintError{RuleID: rule.ID, Kind: "read", Missing: missing}
		}
	}
	if len(rule.WriteSet) > 0 {
		if missing := missingPaths(rule.WriteSet, computed.Write); len(missing) > 0 {
			return &FootprintError{RuleID: rule.ID, Kind: "write", Missing: missing}
		}
	}
	return nil
}

// effectiveFootprint is the footprint admission reasons about: the
// declared sets when present (they may be deliberately wider), otherwise
// the computed ones.
func effectiveFootprint(rule *ast.Rule, computed Footprint) Footprint {
	fp := computed
	if len(rule.ReadSet) > 0 {
		fp.Read = dedupePaths(append([]state.Path(nil), rule.ReadSet...))
	}
	if len(rule.WriteSet) > 0 {
		fp.Write = dedupePaths(append([]state.Path(nil), rule.WriteSet...))
	}
	return fp
}

// resolvePaths substitutes bindings into every path template.
func resolvePaths(paths []state.Path, bindings map[string]string) ([]state.Path, error) {
	out := make([]state.Path, 0, len(paths))
	for _, p := range paths {
		resolved, err := p.Resolve(bindings)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func dedupePaths(paths []state.Path) []state.Path {
	seen := make(map[state.Path]struct{}, len(paths))
	out := make([]state.Path, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// missingPaths returns the members of want that declared does not cover.
func missingPaths(declared, want []state.Path) []state.Path {
	set := make(map[state.Path]struct{}, len(declared))
	for _, p := range declared {
		set[p] = struct{}{}
	}
	var missing []state.Path
	for _, p := range want {
		if _, ok := set[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
