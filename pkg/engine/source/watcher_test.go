package source

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	fired := make(chan struct{}, 10)
	for i := 0; i < 5; i++ {
		d.Trigger(func() { fired <- struct{}{} })
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}

	select {
	case <-fired:
		t.Fatal("burst of triggers fired more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.Trigger(func() { fired <- struct{}{} })
	d.Stop()

	select {
	case <-fired:
		t.Fatal("callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestShouldProcessEvent(t *testing.T) {
	fw, err := NewFileWatcher(nil, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer fw.watcher.Close()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"yaml write", fsnotify.Event{Name: "rules/quests.yaml", Op: fsnotify.Write}, true},
		{"yml create", fsnotify.Event{Name: "rules/combat.yml", Op: fsnotify.Create}, true},
		{"uppercase extension", fsnotify.Event{Name: "rules/quests.YAML", Op: fsnotify.Write}, true},
		{"chmod ignored", fsnotify.Event{Name: "rules/quests.yaml", Op: fsnotify.Chmod}, false},
		{"wrong extension", fsnotify.Event{Name: "rules/readme.md", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: "rules/.quests.yaml", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fw.shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
