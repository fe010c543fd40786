package engine

import (
	"reflect"
	"testing"

	"questforge/apcore/pkg/rules/ast"
	"questforge/apcore/pkg/state"
)

func kernelRegistry(t *testing.T, rules ...*ast.Rule) *Registry {
	t.Helper()
	r := NewRegistry(nil, nil)
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			t.Fatalf("Register(%s) error = %v", rule.ID, err)
		}
	}
	return r
}

func TestApplySet(t *testing.T) {
	snap := state.New(map[string]map[string]map[string]any{
		"world": {"chest": {"opened": false}},
	})
	registry := kernelRegistry(t, &ast.Rule{
		ID: "open", Enabled: true,
		Effects: []*ast.Effect{
			{Op: ast.EffectSet, Path: "world.chest.opened", Value: true},
		},
	})

	next, err := Apply(snap, []Invocation{{RuleID: "open"}}, registry)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, _ := next.Lookup("world.chest.opened"); got != true {
		t.Errorf("opened = %v, want true", got)
	}
	if got, _ := snap.Lookup("world.chest.opened"); got != false {
		t.Error("Apply mutated the input snapshot")
	}
}

func TestApplyAddWithClamp(t *testing.T) {
	tests := []struct {
		name  string
		start any
		delta float64
		clamp *ast.ClampRange
		want  float64
	}{
		{"plain add", 40.0, 10, nil, 50},
		{"clamp upper", 95.0, 10, &ast.ClampRange{Min: 0, Max: 100}, 100},
		{"clamp lower", 5.0, -10, &ast.ClampRange{Min: 0, Max: 100}, 0},
		{"missing base reads zero", nil, 7, nil, 7},
		{"non-numeric base reads zero", "full", 7, nil, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := map[string]any{}
			if tt.start != nil {
				attrs["hp"] = tt.start
			}
			snap := state.New(map[string]map[string]map[string]any{
				"world": {"player": attrs},
			})
			registry := kernelRegistry(t, &ast.Rule{
				ID: "heal", Enabled: true,
				Effects: []*ast.Effect{
					{Op: ast.EffectAdd, Path: "world.player.hp", Value: tt.delta, Clamp: tt.clamp},
				},
			})

			next, err := Apply(snap, []Invocation{{RuleID: "heal"}}, registry)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got, _ := next.Lookup("world.player.hp"); got != tt.want {
				t.Errorf("hp = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyListOps(t *testing.T) {
	snap := state.New(map[string]map[string]map[string]any{
		"inventory": {"player": {"items": []any{"rope", "gem", "rope"}}},
	})
	registry := kernelRegistry(t,
		&ast.Rule{
			ID: "pickup", Enabled: true,
			Effects: []*ast.Effect{
				{Op: ast.EffectListAppend, Path: "inventory.player.items", Value: "sword"},
			},
		},
		&ast.Rule{
			ID: "drop_rope", Enabled: true,
			Effects: []*ast.Effect{
				{Op: ast.EffectListRemove, Path: "inventory.player.items", Value: "rope"},
			},
		},
		&ast.Rule{
			ID: "first_item", Enabled: true,
			Effects: []*ast.Effect{
				{Op: ast.EffectListAppend, Path: "inventory.player.keys", Value: "brass"},
			},
		},
	)

	t.Run("append", func(t *testing.T) {
		next, err := Apply(snap, []Invocation{{RuleID: "pickup"}}, registry)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		got, _ := next.Lookup("inventory.player.items")
		want := []any{"rope", "gem", "rope", "sword"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("items = %v, want %v", got, want)
		}
	})

	t.Run("remove all matches", func(t *testing.T) {
		next, err := Apply(snap, []Invocation{{RuleID: "drop_rope"}}, registry)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		got, _ := next.Lookup("inventory.player.items")
		want := []any{"gem"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("items = %v, want %v", got, want)
		}
	})

	t.Run("append creates missing list", func(t *testing.T) {
		next, err := Apply(snap, []Invocation{{RuleID: "first_item"}}, registry)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		got, _ := next.Lookup("inventory.player.keys")
		want := []any{"brass"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("keys = %v, want %v", got, want)
		}
	})
}

func TestApplyOrderMatters(t *testing.T) {
	snap := state.New(map[string]map[string]map[string]any{
		"world": {"player": {"hp": 10.0}},
	})
	registry := kernelRegistry(t,
		&ast.Rule{
			ID: "double", Enabled: true,
			Effects: []*ast.Effect{{Op: ast.EffectSet, Path: "world.player.hp", Value: 20.0}},
		},
		&ast.Rule{
			ID: "heal", Enabled: true,
			Effects: []*ast.Effect{{Op: ast.EffectAdd, Path: "world.player.hp", Value: 5.0}},
		},
	)

	first, err := Apply(snap, []Invocation{{RuleID: "double"}, {RuleID: "heal"}}, registry)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, _ := first.Lookup("world.player.hp"); got != 25.0 {
		t.Errorf("double-then-heal hp = %v, want 25", got)
	}

	second, err := Apply(snap, []Invocation{{RuleID: "heal"}, {RuleID: "double"}}, registry)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, _ := second.Lookup("world.player.hp"); got != 20.0 {
		t.Errorf("heal-then-double hp = %v, want 20", got)
	}
}

func TestApplyBindings(t *testing.T) {
	snap := state.New(map[string]map[string]map[string]any{
		"world": {"player": {"gold": 10.0}, "goblin": {"gold": 3.0}},
	})
	registry := kernelRegistry(t, &ast.Rule{
		ID: "loot", Enabled: true,
		Effects: []*ast.Effect{{Op: ast.EffectAdd, Path: "world.$actor.gold", Value: 5.0}},
	})

	next, err := Apply(snap, []Invocation{
		{RuleID: "loot", Bindings: map[string]string{"actor": "goblin"}},
	}, registry)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, _ := next.Lookup("world.goblin.gold"); got != 8.0 {
		t.Errorf("goblin gold = %v, want 8", got)
	}
	if got, _ := next.Lookup("world.player.gold"); got != 10.0 {
		t.Errorf("player gold = %v, want 10 (untouched)", got)
	}
}

func TestApplyErrors(t *testing.T) {
	snap := state.New(nil)
	registry := kernelRegistry(t, &ast.Rule{
		ID: "bound", Enabled: true,
		Effects: []*ast.Effect{{Op: ast.EffectSet, Path: "world.$actor.x", Value: 1.0}},
	})

	t.Run("unknown rule", func(t *testing.T) {
		if _, err := Apply(snap, []Invocation{{RuleID: "nope"}}, registry); err == nil {
			t.Error("Apply() accepted an unknown rule")
		}
	})

	t.Run("unbound effect path", func(t *testing.T) {
		if _, err := Apply(snap, []Invocation{{RuleID: "bound"}}, registry); err == nil {
			t.Error("Apply() accepted an unresolvable effect path")
		}
	})
}

func TestApplyIsDeterministic(t *testing.T) {
	snap := state.New(map[string]map[string]map[string]any{
		"world": {"player": {"hp": 50.0, "gold": 0.0}},
	})
	registry := kernelRegistry(t, &ast.Rule{
		ID: "reward", Enabled: true,
		Effects: []*ast.Effect{
			{Op: ast.EffectAdd, Path: "world.player.gold", Value: 25.0},
			{Op: ast.EffectAdd, Path: "world.player.hp", Value: -10.0, Clamp: &ast.ClampRange{Min: 0, Max: 100}},
		},
	})
	batch := []Invocation{{RuleID: "reward"}, {RuleID: "reward", Bindings: map[string]string{"n": "2"}}}

	a, err := Apply(snap, batch, registry)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	b, err := Apply(snap, batch, registry)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !a.Equal(b) {
		t.Error("identical inputs produced different snapshots")
	}
}
