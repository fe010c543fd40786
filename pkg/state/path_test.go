package state

import (
	"errors"
	"testing"
)

func TestPathSegments(t *testing.T) {
	p := Path("world.player.hp")
	if got := p.Subsystem(); got != "world" {
		t.Errorf("Subsystem() = %q, want %q", got, "world")
	}
	if got := p.Entity(); got != "player" {
		t.Errorf("Entity() = %q, want %q", got, "player")
	}
	if got := p.Attribute(); got != "hp" {
		t.Errorf("Attribute() = %q, want %q", got, "hp")
	}
}

func TestPathValidate(t *testing.T) {
	tests := []struct {
		name    string
		path    Path
		wantErr bool
	}{
		{"valid path", "world.player.hp", false},
		{"valid template path", "world.$actor.hp", false},
		{"two segments", "world.player", true},
		{"four segments", "world.player.hp.max", true},
		{"empty segment", "world..hp", true},
		{"empty path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.path.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPathShape) {
				t.Errorf("Validate(%q) error = %v, want ErrPathShape", tt.path, err)
			}
		})
	}
}

func TestPathIsTemplate(t *testing.T) {
	if Path("world.player.hp").IsTemplate() {
		t.Error("literal path reported as template")
	}
	if !Path("world.$actor.hp").IsTemplate() {
		t.Error("template path not reported as template")
	}
}

func TestPathResolve(t *testing.T) {
	bindings := map[string]string{"actor": "player", "room": "tavern"}

	tests := []struct {
		name    string
		path    Path
		want    Path
		wantErr bool
	}{
		{"literal passes through", "world.player.hp", "world.player.hp", false},
		{"single binding", "world.$actor.hp", "world.player.hp", false},
		{"multiple bindings", "rooms.$room.$actor", "rooms.tavern.player", false},
		{"unbound symbol", "world.$target.hp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.path.Resolve(bindings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathResolveDoesNotMutate(t *testing.T) {
	p := Path("world.$actor.hp")
	if _, err := p.Resolve(map[string]string{"actor": "player"}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p != "world.$actor.hp" {
		t.Errorf("Resolve mutated the receiver: %q", p)
	}
}
