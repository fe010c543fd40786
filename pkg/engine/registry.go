package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"questforge/apcore/pkg/rules/ast"
)

// RegisteredRule pairs a rule with its validated effective footprint.
type RegisteredRule struct {
	Rule      *ast.Rule
	Footprint Footprint
}

// RuleSource resolves rule ids to registered rules. Admission and the
// transition kernel look rules up through it rather than the live
// registry, so one tick sees a single consistent table even while the
// registry is swapped underneath.
type RuleSource interface {
	Lookup(id string) (*RegisteredRule, bool)
}

// Registry is the authoritative rule table. Rules are immutable once
// registered; the whole table can be swapped atomically. A swap is never
// observable mid-tick because every mutation installs a fresh map and
// ticks resolve lookups through a View captured up front.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]*RegisteredRule
	maxRules int
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. A nil config uses defaults; a
// nil logger falls back to slog.Default.
func NewRegistry(cfg *Config, logger *slog.Logger) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rules:    make(map[string]*RegisteredRule),
		maxRules: cfg.MaxRules,
		logger:   logger.With("component", "engine.registry"),
	}
}

// View is an immutable point-in-time copy of the rule table. Views stay
// valid forever: Register and ReplaceAll never mutate a published map.
type View struct {
	rules map[string]*RegisteredRule
}

// Lookup returns the rule with the given id as of the capture.
func (v *View) Lookup(id string) (*RegisteredRule, bool) {
	entry, ok := v.rules[id]
	return entry, ok
}

// View captures the current table.
func (r *Registry) View() *View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &View{rules: r.rules}
}

// Register validates and adds one rule. It fails on a duplicate id or an
// under-declared footprint, leaving the table untouched.
func (r *Registry) Register(rule *ast.Rule) error {
	entry, err := r.validate(rule)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; exists {
		return &RegistrationError{RuleID: rule.ID, Message: "duplicate rule id"}
	}
	if len(r.rules) >= r.maxRules {
		return &RegistrationError{
			RuleID:  rule.ID,
			Message: fmt.Sprintf("registry full (max %d rules)", r.maxRules),
		}
	}

	// Copy-on-write: captured views keep seeing the old map.
	next := make(map[string]*RegisteredRule, len(r.rules)+1)
	for id, e := range r.rules {
		next[id] = e
	}
	next[rule.ID] = entry
	r.rules = next

	r.logger.Info("rule registered",
		"rule_id", rule.ID,
		"priority", rule.Priority,
		"read_paths", len(entry.Footprint.Read),
		"write_paths", len(entry.Footprint.Write),
	)

	return nil
}

// ReplaceAll atomically swaps the whole table for the given rules. On any
// validation error nothing changes and the previous table stays in effect.
func (r *Registry) ReplaceAll(rules []*ast.Rule) error {
	if len(rules) > r.maxRules {
		return &RegistrationError{
			RuleID:  "all",
			Message: fmt.Sprintf("too many rules: %d (max %d)", len(rules), r.maxRules),
		}
	}

	next := make(map[string]*RegisteredRule, len(rules))
	for _, rule := range rules {
		entry, err := r.validate(rule)
		if err != nil {
			return err
		}
		if _, exists := next[rule.ID]; exists {
			return &RegistrationError{RuleID: rule.ID, Message: "duplicate rule id"}
		}
		next[rule.ID] = entry
	}

	r.mu.Lock()
	r.rules = next
	r.mu.Unlock()

	r.logger.Info("rule table replaced", "rule_count", len(next))
	return nil
}

// Lookup returns the registered rule with the given id.
func (r *Registry) Lookup(id string) (*RegisteredRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.rules[id]
	return entry, ok
}

// List returns the rules carrying every given tag, sorted by id. With no
// tags it returns all rules.
func (r *Registry) List(tags ...string) []*ast.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ast.Rule
	for _, entry := range r.rules {
		matches := true
		for _, tag := range tags {
			if !entry.Rule.HasTag(tag) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, entry.Rule)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// validate runs registration-time checks: path shapes, footprint
// computation, and declared-set superset validation.
func (r *Registry) validate(rule *ast.Rule) (*RegisteredRule, error) {
	if rule == nil || rule.ID == "" {
		return nil, &RegistrationError{RuleID: "", Message: "rule must have an id"}
	}

	for _, p := range rule.PredicatePaths(nil) {
		if err := p.Validate(); err != nil {
			return nil, &RegistrationError{RuleID: rule.ID, Message: "invalid predicate path", Cause: err}
		}
	}
	for _, p := range rule.EffectPaths(nil) {
		if err := p.Validate(); err != nil {
			return nil, &RegistrationError{RuleID: rule.ID, Message: "invalid effect path", Cause: err}
		}
	}

	computed := ComputeFootprint(rule)
	if err := validateDeclared(rule, computed); err != nil {
		return nil, &RegistrationError{RuleID: rule.ID, Message: "under-declared footprint", Cause: err}
	}

	return &RegisteredRule{
		Rule:      rule,
		Footprint: effectiveFootprint(rule, computed),
	}, nil
}
