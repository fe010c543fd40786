package parser

import (
	"fmt"
	"strings"

	"questforge/apcore/pkg/rules/ast"
	ruleErrors "questforge/apcore/pkg/rules/errors"
	"questforge/apcore/pkg/state"
)

// builder constructs AST nodes from intermediate YAML structures,
// accumulating problems instead of failing fast.
type builder struct {
	sourcePath string
	errors     *ruleErrors.ErrorList
}

func newBuilder(sourcePath string) *builder {
	return &builder{
		sourcePath: sourcePath,
		errors:     ruleErrors.NewErrorList(),
	}
}

func (b *builder) loc() ast.Location {
	return ast.Location{File: b.sourcePath}
}

// buildDocument transforms a yamlDocument into a Document.
func (b *builder) buildDocument(yd *yamlDocument) (*Document, error) {
	doc := &Document{
		Ruleset: yd.Ruleset,
		Version: yd.Version,
		Rules:   make([]*ast.Rule, 0, len(yd.Rules)),
	}

	for i, yr := range yd.Rules {
		rule, err := b.buildRule(&yr)
		if err != nil {
			b.errors.AddError(ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("invalid rule at index %d: %v", i, err), b.loc())
			continue
		}
		doc.Rules = append(doc.Rules, rule)
	}

	for i, yi := range yd.Invariants {
		inv, err := b.buildInvariant(yi)
		if err != nil {
			b.errors.AddError(ruleErrors.ErrorTypeStructural,
				fmt.Sprintf("invalid invariant at index %d: %v", i, err), b.loc())
			continue
		}
		doc.Invariants = append(doc.Invariants, inv)
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return doc, nil
}

// buildRule transforms a yamlRule into an ast.Rule.
func (b *builder) buildRule(yr *yamlRule) (*ast.Rule, error) {
	if yr.ID == "" {
		return nil, fmt.Errorf("rule is missing an id")
	}

	rule := &ast.Rule{
		ID:          yr.ID,
		Description: yr.Description,
		Enabled:     yr.Enabled == nil || *yr.Enabled,
		Priority:    yr.Priority,
		Tags:        yr.Tags,
		Location:    b.loc(),
	}

	for i, yp := range yr.Requires {
		p, err := b.buildPredicate(yp)
		if err != nil {
			return nil, fmt.Errorf("requires[%d]: %w", i, err)
		}
		rule.Requires = append(rule.Requires, p)
	}

	for i, yp := range yr.Conflicts {
		p, err := b.buildPredicate(yp)
		if err != nil {
			return nil, fmt.Errorf("conflicts[%d]: %w", i, err)
		}
		rule.Conflicts = append(rule.Conflicts, p)
	}

	for i, ye := range yr.Effects {
		e, err := b.buildEffect(ye)
		if err != nil {
			return nil, fmt.Errorf("effects[%d]: %w", i, err)
		}
		rule.Effects = append(rule.Effects, e)
	}

	for _, raw := range yr.ReadSet {
		p, err := b.buildPath(raw, false)
		if err != nil {
			return nil, fmt.Errorf("read_set: %w", err)
		}
		rule.ReadSet = append(rule.ReadSet, p)
	}
	for _, raw := range yr.WriteSet {
		p, err := b.buildPath(raw, false)
		if err != nil {
			return nil, fmt.Errorf("write_set: %w", err)
		}
		rule.WriteSet = append(rule.WriteSet, p)
	}

	return rule, nil
}

// buildPredicate transforms a single-key predicate mapping into an
// ast.Predicate. The key selects the variant.
func (b *builder) buildPredicate(node map[string]any) (*ast.Predicate, error) {
	if flag, ok := node["flag"]; ok {
		path, err := b.buildPathValue(flag)
		if err != nil {
			return nil, err
		}
		expected := true
		if eq, ok := node["equals"]; ok {
			v, ok := eq.(bool)
			if !ok {
				return nil, fmt.Errorf("flag equals must be a boolean, got %T", eq)
			}
			expected = v
		}
		return &ast.Predicate{
			Type: ast.PredicateFlagEquals, Path: path, Value: expected, Location: b.loc(),
		}, nil
	}

	if raw, ok := node["compare"]; ok {
		m, err := asMap(raw, "compare")
		if err != nil {
			return nil, err
		}
		path, err := b.buildPathValue(m["path"])
		if err != nil {
			return nil, err
		}
		op, err := buildOperator(m["op"])
		if err != nil {
			return nil, err
		}
		value, err := asNumber(m["value"], "compare value")
		if err != nil {
			return nil, err
		}
		return &ast.Predicate{
			Type: ast.PredicateCompare, Path: path, Operator: op, Value: value, Location: b.loc(),
		}, nil
	}

	if raw, ok := node["location"]; ok {
		m, err := asMap(raw, "location")
		if err != nil {
			return nil, err
		}
		path, err := b.buildPathValue(m["path"])
		if err != nil {
			return nil, err
		}
		expected, ok := m["equals"].(string)
		if !ok {
			return nil, fmt.Errorf("location equals must be a string, got %T", m["equals"])
		}
		return &ast.Predicate{
			Type: ast.PredicateLocationEquals, Path: path, Value: expected, Location: b.loc(),
		}, nil
	}

	if raw, ok := node["phase"]; ok {
		m, err := asMap(raw, "phase")
		if err != nil {
			return nil, err
		}
		path, err := b.buildPathValue(m["path"])
		if err != nil {
			return nil, err
		}
		min, err := asNumber(m["at_least"], "phase at_least")
		if err != nil {
			return nil, err
		}
		return &ast.Predicate{
			Type: ast.PredicatePhaseAtLeast, Path: path, Value: min, Location: b.loc(),
		}, nil
	}

	if raw, ok := node["all"]; ok {
		children, err := b.buildPredicateList(raw, "all")
		if err != nil {
			return nil, err
		}
		return &ast.Predicate{Type: ast.PredicateAll, Children: children, Location: b.loc()}, nil
	}

	if raw, ok := node["any"]; ok {
		children, err := b.buildPredicateList(raw, "any")
		if err != nil {
			return nil, err
		}
		return &ast.Predicate{Type: ast.PredicateAny, Children: children, Location: b.loc()}, nil
	}

	if raw, ok := node["not"]; ok {
		m, err := asMap(raw, "not")
		if err != nil {
			return nil, err
		}
		child, err := b.buildPredicate(m)
		if err != nil {
			return nil, err
		}
		return &ast.Predicate{
			Type: ast.PredicateNot, Children: []*ast.Predicate{child}, Location: b.loc(),
		}, nil
	}

	return nil, fmt.Errorf("predicate must have one of: flag, compare, location, phase, all, any, not")
}

func (b *builder) buildPredicateList(raw any, kind string) ([]*ast.Predicate, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of predicates, got %T", kind, raw)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s must have at least one child", kind)
	}
	children := make([]*ast.Predicate, 0, len(list))
	for i, elem := range list {
		m, err := asMap(elem, fmt.Sprintf("%s[%d]", kind, i))
		if err != nil {
			return nil, err
		}
		child, err := b.buildPredicate(m)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// buildEffect transforms a single-key effect mapping into an ast.Effect.
func (b *builder) buildEffect(node map[string]any) (*ast.Effect, error) {
	ops := []struct {
		key string
		op  ast.EffectOp
	}{
		{"set", ast.EffectSet},
		{"add", ast.EffectAdd},
		{"append", ast.EffectListAppend},
		{"remove", ast.EffectListRemove},
	}

	for _, candidate := range ops {
		raw, ok := node[candidate.key]
		if !ok {
			continue
		}
		m, err := asMap(raw, candidate.key)
		if err != nil {
			return nil, err
		}
		path, err := b.buildPathValue(m["path"])
		if err != nil {
			return nil, err
		}

		effect := &ast.Effect{
			Op:       candidate.op,
			Path:     path,
			Value:    normalizeValue(m["value"]),
			Location: b.loc(),
		}

		if candidate.op == ast.EffectAdd {
			if _, err := asNumber(m["value"], "add value"); err != nil {
				return nil, err
			}
			if clampRaw, ok := m["clamp"]; ok {
				clamp, err := buildClamp(clampRaw)
				if err != nil {
					return nil, err
				}
				effect.Clamp = clamp
			}
		} else if _, ok := m["clamp"]; ok {
			return nil, fmt.Errorf("clamp is only valid on add effects")
		}

		return effect, nil
	}

	return nil, fmt.Errorf("effect must have one of: set, add, append, remove")
}

// buildInvariant transforms a single-key invariant mapping.
func (b *builder) buildInvariant(node map[string]any) (*ast.Invariant, error) {
	if raw, ok := node["bounds"]; ok {
		m, err := asMap(raw, "bounds")
		if err != nil {
			return nil, err
		}
		path, err := b.buildWildcardPathValue(m["path"])
		if err != nil {
			return nil, err
		}
		min, err := asNumber(m["min"], "bounds min")
		if err != nil {
			return nil, err
		}
		max, err := asNumber(m["max"], "bounds max")
		if err != nil {
			return nil, err
		}
		if min > max {
			return nil, fmt.Errorf("bounds min %v exceeds max %v", min, max)
		}
		return &ast.Invariant{
			Type: ast.InvariantBounds, Path: path, Min: min, Max: max, Location: b.loc(),
		}, nil
	}

	if raw, ok := node["required_keys"]; ok {
		m, err := asMap(raw, "required_keys")
		if err != nil {
			return nil, err
		}
		subsystem, ok := m["subsystem"].(string)
		if !ok || subsystem == "" {
			return nil, fmt.Errorf("required_keys needs a subsystem name")
		}
		rawKeys, ok := m["keys"].([]any)
		if !ok || len(rawKeys) == 0 {
			return nil, fmt.Errorf("required_keys needs a non-empty keys list")
		}
		keys := make([]string, 0, len(rawKeys))
		for _, k := range rawKeys {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("required_keys keys must be strings, got %T", k)
			}
			keys = append(keys, key)
		}
		return &ast.Invariant{
			Type: ast.InvariantRequiredKeys, Subsystem: subsystem, Keys: keys, Location: b.loc(),
		}, nil
	}

	if raw, ok := node["reference"]; ok {
		m, err := asMap(raw, "reference")
		if err != nil {
			return nil, err
		}
		path, err := b.buildWildcardPathValue(m["path"])
		if err != nil {
			return nil, err
		}
		refSubsystem, ok := m["subsystem"].(string)
		if !ok || refSubsystem == "" {
			return nil, fmt.Errorf("reference needs a target subsystem name")
		}
		return &ast.Invariant{
			Type: ast.InvariantReference, Path: path, RefSubsystem: refSubsystem, Location: b.loc(),
		}, nil
	}

	return nil, fmt.Errorf("invariant must have one of: bounds, required_keys, reference")
}

func (b *builder) buildPathValue(raw any) (state.Path, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("path must be a string, got %T", raw)
	}
	return b.buildPath(s, false)
}

func (b *builder) buildWildcardPathValue(raw any) (state.Path, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("path must be a string, got %T", raw)
	}
	return b.buildPath(s, true)
}

// buildPath validates a dotted path. Wildcard "*" in the entity segment is
// only meaningful for invariants.
func (b *builder) buildPath(raw string, allowWildcard bool) (state.Path, error) {
	p := state.Path(raw)
	if err := p.Validate(); err != nil {
		return "", err
	}
	if !allowWildcard && strings.Contains(raw, "*") {
		return "", fmt.Errorf("wildcard paths are not allowed here: %q", raw)
	}
	return p, nil
}

func buildOperator(raw any) (ast.Operator, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("compare op must be a string, got %T", raw)
	}
	switch op := ast.Operator(s); op {
	case ast.OperatorEqual, ast.OperatorNotEqual,
		ast.OperatorLessThan, ast.OperatorGreaterThan,
		ast.OperatorLessEqual, ast.OperatorGreaterEqual:
		return op, nil
	default:
		return "", fmt.Errorf("unknown compare op %q", s)
	}
}

func buildClamp(raw any) (*ast.ClampRange, error) {
	m, err := asMap(raw, "clamp")
	if err != nil {
		return nil, err
	}
	min, err := asNumber(m["min"], "clamp min")
	if err != nil {
		return nil, err
	}
	max, err := asNumber(m["max"], "clamp max")
	if err != nil {
		return nil, err
	}
	if min > max {
		return nil, fmt.Errorf("clamp min %v exceeds max %v", min, max)
	}
	return &ast.ClampRange{Min: min, Max: max}, nil
}

func asMap(raw any, kind string) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a mapping, got %T", kind, raw)
	}
	return m, nil
}

func asNumber(raw any, kind string) (float64, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", kind, raw)
	}
}

// normalizeValue converts YAML-decoded values into the snapshot value
// domain: ints become float64 so evaluation and replay equality never
// depend on which numeric type the decoder chose.
func normalizeValue(raw any) any {
	switch v := raw.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
