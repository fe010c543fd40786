package engine

import (
	"errors"
	"reflect"
	"testing"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

func footprintRule() *ast.Rule {
	return &ast.Rule{
		ID: "open_chest", Enabled: true,
		Requires: []*ast.Predicate{
			{Type: ast.PredicateFlagEquals, Path: "world.$actor.has_key", Value: true},
			{Type: ast.PredicateAll, Children: []*ast.Predicate{
				{Type: ast.PredicateLocationEquals, Path: "world.$actor.room", Value: "vault"},
				{Type: ast.PredicateFlagEquals, Path: "world.$actor.has_key", Value: true},
			}},
		},
		Conflicts: []*ast.Predicate{
			{Type: ast.PredicateFlagEquals, Path: "world.chest.opened", Value: true},
		},
		Effects: []*ast.Effect{
			{Op: ast.EffectSet, Path: "world.chest.opened", Value: true},
			{Op: ast.EffectAdd, Path: "world.$actor.gold", Value: 50.0},
		},
	}
}

func TestComputeFootprint(t *testing.T) {
	fp := ComputeFootprint(footprintRule())

	wantRead := []state.Path{"world.$actor.has_key", "world.$actor.room", "world.chest.opened"}
	wantWrite := []state.Path{"world.$actor.gold", "world.chest.opened"}

	if !reflect.DeepEqual(fp.Read, wantRead) {
		t.Errorf("Read = %v, want %v (deduped, sorted)", fp.Read, wantRead)
	}
	if !reflect.DeepEqual(fp.Write, wantWrite) {
		t.Errorf("Write = %v, want %v", fp.Write, wantWrite)
	}
}

func TestValidateDeclared(t *testing.T) {
	rule := footprintRule()
	computed := ComputeFootprint(rule)

	t.Run("superset accepted", func(t *testing.T) {
		rule.WriteSet = []state.Path{
			"world.chest.opened", "world.$actor.gold", "world.chest.trapped",
		}
		defer func() { rule.WriteSet = nil }()
		if err := validateDeclared(rule, computed); err != nil {
			t.Errorf("validateDeclared() error = %v, want nil for a superset", err)
		}
	})

	t.Run("narrower declaration rejected", func(t *testing.T) {
		rule.WriteSet = []state.Path{"world.chest.opened"}
		defer func() { rule.WriteSet = nil }()
		err := validateDeclared(rule, computed)
		var fe *FootprintError
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *FootprintError", err)
		}
		if fe.Kind != "write" || len(fe.Missing) != 1 || fe.Missing[0] != "world.$actor.gold" {
			t.Errorf("FootprintError = %+v", fe)
		}
	})

	t.Run("narrower read set rejected", func(t *testing.T) {
		rule.ReadSet = []state.Path{"world.chest.opened"}
		defer func() { rule.ReadSet = nil }()
		err := validateDeclared(rule, computed)
		var fe *FootprintError
		if !errors.As(err, &fe) {
			t.Fatalf("error = %v, want *FootprintError", err)
		}
		if fe.Kind != "read" {
			t.Errorf("Kind = %q, want read", fe.Kind)
		}
	})
}

func TestEffectiveFootprint(t *testing.T) {
	rule := footprintRule()
	computed := ComputeFootprint(rule)

	t.Run("computed when undeclared", func(t *testing.T) {
		fp := effectiveFootprint(rule, computed)
		if !reflect.DeepEqual(fp, computed) {
			t.Errorf("effectiveFootprint = %+v, want computed %+v", fp, computed)
		}
	})

	t.Run("declared wins when wider", func(t *testing.T) {
		rule.WriteSet = []state.Path{
			"world.$actor.gold", "world.chest.opened", "world.chest.trapped",
		}
		defer func() { rule.WriteSet = nil }()
		fp := effectiveFootprint(rule, computed)
		if len(fp.Write) != 3 {
			t.Errorf("Write = %v, want declared 3-path set", fp.Write)
		}
	})
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil, nil)

	if err := r.Register(footprintRule()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	entry, ok := r.Lookup("open_chest")
	if !ok {
		t.Fatal("Lookup() did not find the registered rule")
	}
	if len(entry.Footprint.Write) != 2 {
		t.Errorf("stored footprint write = %v", entry.Footprint.Write)
	}

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := r.Register(footprintRule())
		var re *RegistrationError
		if !errors.As(err, &re) {
			t.Fatalf("error = %v, want *RegistrationError", err)
		}
		if r.Len() != 1 {
			t.Error("failed registration changed the table")
		}
	})

	t.Run("missing id rejected", func(t *testing.T) {
		if err := r.Register(&ast.Rule{}); err == nil {
			t.Error("Register() accepted a rule without an id")
		}
	})

	t.Run("under-declared footprint rejected", func(t *testing.T) {
		bad := footprintRule()
		bad.ID = "bad_declare"
		bad.WriteSet = []state.Path{"world.chest.opened"}
		err := r.Register(bad)
		var re *RegistrationError
		if !errors.As(err, &re) {
			t.Fatalf("error = %v, want *RegistrationError", err)
		}
		var fe *FootprintError
		if !errors.As(err, &fe) {
			t.Errorf("error chain %v does not carry *FootprintError", err)
		}
	})

	t.Run("invalid path rejected", func(t *testing.T) {
		bad := &ast.Rule{
			ID: "bad_path", Enabled: true,
			Effects: []*ast.Effect{{Op: ast.EffectSet, Path: "world.chest", Value: true}},
		}
		if err := r.Register(bad); err == nil {
			t.Error("Register() accepted a malformed path")
		}
	})
}

func TestRegistryReplaceAll(t *testing.T) {
	r := NewRegistry(nil, nil)
	if err := r.Register(footprintRule()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("swap replaces table", func(t *testing.T) {
		next := footprintRule()
		next.ID = "different"
		if err := r.ReplaceAll([]*ast.Rule{next}); err != nil {
			t.Fatalf("ReplaceAll() error = %v", err)
		}
		if _, ok := r.Lookup("open_chest"); ok {
			t.Error("old rule survived the swap")
		}
		if _, ok := r.Lookup("different"); !ok {
			t.Error("new rule missing after the swap")
		}
	})

	t.Run("failed swap keeps previous table", func(t *testing.T) {
		bad := footprintRule()
		bad.WriteSet = []state.Path{"world.chest.opened"} // narrower than computed
		if err := r.ReplaceAll([]*ast.Rule{bad}); err == nil {
			t.Fatal("ReplaceAll() accepted an invalid rule set")
		}
		if _, ok := r.Lookup("different"); !ok {
			t.Error("previous table not preserved after failed swap")
		}
	})
}

func TestRegistryViewIsStable(t *testing.T) {
	r := NewRegistry(nil, nil)
	if err := r.Register(footprintRule()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	view := r.View()

	if err := r.Register(&ast.Rule{ID: "later", Enabled: true}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.ReplaceAll([]*ast.Rule{{ID: "swapped", Enabled: true}}); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	// The view still resolves the table as of its capture.
	if _, ok := view.Lookup("open_chest"); !ok {
		t.Error("captured view lost its rule after later mutations")
	}
	if _, ok := view.Lookup("later"); ok {
		t.Error("captured view sees a rule registered after the capture")
	}
	if _, ok := view.Lookup("swapped"); ok {
		t.Error("captured view sees a swapped-in table")
	}
	if _, ok := r.Lookup("swapped"); !ok {
		t.Error("registry itself missing the swapped-in rule")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry(nil, nil)
	rules := []*ast.Rule{
		{ID: "b_combat", Enabled: true, Tags: []string{"combat"}},
		{ID: "a_combat", Enabled: true, Tags: []string{"combat", "boss"}},
		{ID: "c_quest", Enabled: true, Tags: []string{"quest"}},
	}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			t.Fatalf("Register(%s) error = %v", rule.ID, err)
		}
	}

	all := r.List()
	if len(all) != 3 || all[0].ID != "a_combat" || all[2].ID != "c_quest" {
		t.Errorf("List() order = %v", ruleIDs(all))
	}

	combat := r.List("combat")
	if len(combat) != 2 {
		t.Errorf("List(combat) = %v", ruleIDs(combat))
	}

	boss := r.List("combat", "boss")
	if len(boss) != 1 || boss[0].ID != "a_combat" {
		t.Errorf("List(combat, boss) = %v", ruleIDs(boss))
	}
}

func ruleIDs(rules []*ast.Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

func TestRegistryMaxRules(t *testing.T) {
	r := NewRegistry(&Config{TickInterval: 1, QueueSize: 1, MaxCandidatesPerTick: 1, MaxRules: 1}, nil)
	if err := r.Register(&ast.Rule{ID: "one", Enabled: true}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&ast.Rule{ID: "two", Enabled: true}); err == nil {
		t.Error("Register() exceeded the configured rule cap")
	}
}
