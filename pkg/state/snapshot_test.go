package state

import (
	"reflect"
	"testing"
)

func testWorld() Snapshot {
	return New(map[string]map[string]map[string]any{
		"world": {
			"player": {"hp": 100.0, "room": "tavern", "alive": true},
			"goblin": {"hp": 30.0, "room": "cave"},
		},
		"quests": {
			"main": {"phase": 2.0},
		},
	})
}

func TestSnapshotLookup(t *testing.T) {
	snap := testWorld()

	tests := []struct {
		name      string
		path      Path
		want      any
		wantFound bool
	}{
		{"number attribute", "world.player.hp", 100.0, true},
		{"string attribute", "world.player.room", "tavern", true},
		{"bool attribute", "world.player.alive", true, true},
		{"missing attribute", "world.player.mp", nil, false},
		{"missing entity", "world.dragon.hp", nil, false},
		{"missing subsystem", "inventory.player.gold", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := snap.Lookup(tt.path)
			if found != tt.wantFound {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.path, found, tt.wantFound)
			}
			if found && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lookup(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSnapshotWith(t *testing.T) {
	snap := testWorld()

	next, err := snap.With("world.player.hp", 90.0)
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}

	// The new snapshot sees the write.
	if got, _ := next.Lookup("world.player.hp"); got != 90.0 {
		t.Errorf("new snapshot hp = %v, want 90", got)
	}
	// The original is untouched.
	if got, _ := snap.Lookup("world.player.hp"); got != 100.0 {
		t.Errorf("original snapshot hp = %v, want 100", got)
	}
	// Untouched entities are still visible.
	if got, _ := next.Lookup("world.goblin.hp"); got != 30.0 {
		t.Errorf("goblin hp = %v, want 30", got)
	}
}

func TestSnapshotWithCreatesLevels(t *testing.T) {
	var snap Snapshot

	next, err := snap.With("inventory.player.gold", 5.0)
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if got, found := next.Lookup("inventory.player.gold"); !found || got != 5.0 {
		t.Errorf("gold = %v (found %v), want 5", got, found)
	}
	if snap.HasEntity("inventory", "player") {
		t.Error("zero-value snapshot gained an entity")
	}
}

func TestSnapshotWithRejectsTemplates(t *testing.T) {
	snap := testWorld()
	if _, err := snap.With("world.$actor.hp", 1.0); err == nil {
		t.Error("With() accepted an unresolved template path")
	}
	if _, err := snap.With("world.player", 1.0); err == nil {
		t.Error("With() accepted a malformed path")
	}
}

func TestSnapshotListCopyOnRead(t *testing.T) {
	snap := New(map[string]map[string]map[string]any{
		"inventory": {"player": {"items": []any{"sword", "rope"}}},
	})

	raw, _ := snap.Lookup("inventory.player.items")
	list := raw.([]any)
	list[0] = "mutated"

	raw2, _ := snap.Lookup("inventory.player.items")
	if raw2.([]any)[0] != "sword" {
		t.Error("caller mutation leaked into the snapshot")
	}
}

func TestSnapshotEqual(t *testing.T) {
	a := testWorld()
	b := testWorld()
	if !a.Equal(b) {
		t.Error("identical snapshots not equal")
	}

	c, err := a.With("world.player.hp", 1.0)
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if a.Equal(c) {
		t.Error("different snapshots reported equal")
	}

	var zero Snapshot
	empty := New(nil)
	if !zero.Equal(empty) {
		t.Error("zero snapshot and empty snapshot not equal")
	}
}

func TestSnapshotEntitiesSorted(t *testing.T) {
	snap := testWorld()
	got := snap.Entities("world")
	want := []string{"goblin", "player"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Entities() = %v, want %v", got, want)
	}

	if ids := snap.Entities("nope"); len(ids) != 0 {
		t.Errorf("Entities of missing subsystem = %v, want empty", ids)
	}
}

func TestSnapshotDataRoundTrip(t *testing.T) {
	snap := testWorld()
	again := New(snap.Data())
	if !snap.Equal(again) {
		t.Error("Data/New round trip changed the snapshot")
	}
}
