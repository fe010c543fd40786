package engine

import (
	"fmt"
	"log/slog"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

// Evaluator performs pure predicate evaluation against a snapshot.
//
// Missing attribute paths are a tolerated condition: they evaluate to a
// typed default (false for flags, 0 for numbers and phases, "" for
// locations) and are recorded as diagnostics, never surfaced as errors.
// The only hard evaluation error is an unbound $symbol, which means the
// caller supplied an incomplete binding context.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger.With("component", "engine.evaluator")}
}

// Evaluate reports whether the predicate holds on the snapshot under the
// given bindings. Diagnostics for tolerated conditions are appended to
// diags when it is non-nil.
func (ev *Evaluator) Evaluate(p *ast.Predicate, snap state.Snapshot, bindings map[string]string, ruleID string, diags *[]Diagnostic) (bool, error) {
	ex, err := ev.Explain(p, snap, bindings, ruleID, diags)
	if err != nil {
		return false, err
	}
	return ex.Holds, nil
}

// Explain evaluates the predicate and reports the decisive actual and
// expected values. For composite predicates the explanation of the first
// decisive child is propagated: the first failing child of an all, the
// first holding child of an any.
func (ev *Evaluator) Explain(p *ast.Predicate, snap state.Snapshot, bindings map[string]string, ruleID string, diags *[]Diagnostic) (Explanation, error) {
	switch p.Type {
	case ast.PredicateAll:
		return ev.explainAll(p, snap, bindings, ruleID, diags)
	case ast.PredicateAny:
		return ev.explainAny(p, snap, bindings, ruleID, diags)
	case ast.PredicateNot:
		return ev.explainNot(p, snap, bindings, ruleID, diags)
	default:
		return ev.explainLeaf(p, snap, bindings, ruleID, diags)
	}
}

func (ev *Evaluator) explainAll(p *ast.Predicate, snap state.Snapshot, bindings map[string]string, ruleID string, diags *[]Diagnostic) (Explanation, error) {
	for _, child := range p.Children {
		ex, err := ev.Explain(child, snap, bindings, ruleID, diags)
		if err != nil {
			return Explanation{}, err
		}
		if !ex.Holds {
			return ex, nil
		}
	}
	return Explanation{Holds: true, Detail: "all children hold"}, nil
}

func (ev *Evaluator) explainAny(p *ast.Predicate, snap state.Snapshot, bindings map[string]string, ruleID string, diags *[]Diagnostic) (Explanation, error) {
	var last Explanation
	for _, child := range p.Children {
		ex, err := ev.Explain(child, snap, bindings, ruleID, diags)
		if err != nil {
			return Explanation{}, err
		}
		if ex.Holds {
			return ex, nil
		}
		last = ex
	}
	last.Holds = false
	if last.Detail == "" {
		last.Detail = "no child holds"
	}
	return last, nil
}

func (ev *Evaluator) explainNot(p *ast.Predicate, snap state.Snapshot, bindings map[string]string, ruleID string, diags *[]Diagnostic) (Explanation, error) {
	if len(p.Children) != 1 {
		return Explanation{}, fmt.Errorf("not predicate must have exactly one child, got %d", len(p.Children))
	}
	ex, err := ev.Explain(p.Children[0], snap, bindings, ruleID, diags)
	if err != nil {
		return Explanation{}, err
	}
	ex.Holds = !ex.Holds
	ex.Detail = "negated: " + p.Children[0].String()
	return ex, nil
}

func (ev *Evaluator) explainLeaf(p *ast.Predicate, snap state.Snapshot, bindings map[string]string, ruleID string, diags *[]Diagnostic) (Explanation, error) {
	path, err := p.Path.Resolve(bindings)
	if err != nil {
		return Explanation{}, err
	}

	raw, found := snap.Lookup(path)
	if !found {
		ev.note(diags, ruleID, path, "attribute missing, using typed default")
	}

	switch p.Type {
	case ast.PredicateFlagEquals:
		actual := false
		if found {
			b, ok := raw.(bool)
			if !ok {
				ev.note(diags, ruleID, path, fmt.Sprintf("expected boolean, found %T, using false", raw))
			} else {
				actual = b
			}
		}
		expected, ok := p.Value.(bool)
		if !ok {
			return Explanation{}, fmt.Errorf("flag predicate on %q expects a boolean value, got %T", p.Path, p.Value)
		}
		return Explanation{Holds: actual == expected, Actual: actual, Expected: expected}, nil

	case ast.PredicateCompare:
		actual := ev.numericValue(raw, found, ruleID, path, diags)
		expected, ok := toFloat64(p.Value)
		if !ok {
			return Explanation{}, fmt.Errorf("compare predicate on %q expects a numeric value, got %T", p.Path, p.Value)
		}
		holds, err := compareNumbers(p.Operator, actual, expected)
		if err != nil {
			return Explanation{}, err
		}
		return Explanation{Holds: holds, Actual: actual, Expected: expected}, nil

	case ast.PredicateLocationEquals:
		actual := ""
		if found {
			s, ok := raw.(string)
			if !ok {
				ev.note(diags, ruleID, path, fmt.Sprintf("expected string, found %T, using empty", raw))
			} else {
				actual = s
			}
		}
		expected, err := resolveExpectedString(p.Value, bindings)
		if err != nil {
			return Explanation{}, err
		}
		return Explanation{Holds: actual == expected, Actual: actual, Expected: expected}, nil

	case ast.PredicatePhaseAtLeast:
		actual := ev.numericValue(raw, found, ruleID, path, diags)
		expected, ok := toFloat64(p.Value)
		if !ok {
			return Explanation{}, fmt.Errorf("phase predicate on %q expects a numeric value, got %T", p.Path, p.Value)
		}
		return Explanation{Holds: actual >= expected, Actual: actual, Expected: expected}, nil

	default:
		return Explanation{}, fmt.Errorf("unknown predicate type %q", p.Type)
	}
}

// numericValue coerces a looked-up value to float64, falling back to the
// typed default 0 with a diagnostic.
func (ev *Evaluator) numericValue(raw any, found bool, ruleID string, path state.Path, diags *[]Diagnostic) float64 {
	if !found {
		return 0
	}
	n, ok := toFloat64(raw)
	if !ok {
		ev.note(diags, ruleID, path, fmt.Sprintf("expected number, found %T, using 0", raw))
		return 0
	}
	return n
}

func (ev *Evaluator) note(diags *[]Diagnostic, ruleID string, path state.Path, note string) {
	ev.logger.Debug("evaluation tolerance", "rule_id", ruleID, "path", path, "note", note)
	if diags != nil {
		*diags = append(*diags, Diagnostic{RuleID: ruleID, Path: path, Note: note})
	}
}

// compareNumbers applies a comparison operator to two numbers.
func compareNumbers(op ast.Operator, actual, expected float64) (bool, error) {
	switch op {
	case ast.OperatorEqual:
		return actual == expected, nil
	case ast.OperatorNotEqual:
		return actual != expected, nil
	case ast.OperatorLessThan:
		return actual < expected, nil
	case ast.OperatorGreaterThan:
		return actual > expected, nil
	case ast.OperatorLessEqual:
		return actual <= expected, nil
	case ast.OperatorGreaterEqual:
		return actual >= expected, nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

// resolveExpectedString lets a location predicate compare against a
// $binding instead of a literal ("location world.$actor.room == $room").
func resolveExpectedString(expected any, bindings map[string]string) (string, error) {
	s, ok := expected.(string)
	if !ok {
		return "", fmt.Errorf("location expected value must be a string, got %T", expected)
	}
	if len(s) > 1 && s[0] == '$' {
		value, ok := bindings[s[1:]]
		if !ok {
			return "", fmt.Errorf("unbound symbol %q in expected value", s[1:])
		}
		return value, nil
	}
	return s, nil
}

// toFloat64 converts a snapshot value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
