package eventlog

import (
	"context"
	"errors"
	"testing"
)

type fakeCheckpointStore struct {
	savedTick    uint64
	savedData    []byte
	prunedBefore uint64
	pruneCalled  bool
	saveErr      error
	pruneErr     error
}

func (s *fakeCheckpointStore) SaveCheckpoint(ctx context.Context, tick uint64, snapshot []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedTick = tick
	s.savedData = snapshot
	return nil
}

func (s *fakeCheckpointStore) PruneBefore(ctx context.Context, tick uint64) (int64, error) {
	if s.pruneErr != nil {
		return 0, s.pruneErr
	}
	s.pruneCalled = true
	s.prunedBefore = tick
	return 7, nil
}

func snapshotAt(tick uint64) SnapshotFunc {
	return func() (uint64, []byte, error) {
		return tick, []byte(`{}`), nil
	}
}

func TestPrunerCutoff(t *testing.T) {
	tests := []struct {
		name       string
		tick       uint64
		keepTicks  uint64
		wantCutoff uint64
		wantPrune  bool
	}{
		{name: "keep nothing", tick: 100, keepTicks: 0, wantCutoff: 100, wantPrune: true},
		{name: "keep window", tick: 100, keepTicks: 30, wantCutoff: 70, wantPrune: true},
		{name: "window covers history", tick: 10, keepTicks: 30, wantPrune: false},
		{name: "tick zero", tick: 0, keepTicks: 0, wantPrune: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCheckpointStore{}
			p := NewPruner(&RetentionConfig{KeepTicks: tt.keepTicks}, store, snapshotAt(tt.tick))

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}

			if store.savedTick != tt.tick {
				t.Errorf("checkpoint tick = %d, want %d", store.savedTick, tt.tick)
			}
			if store.pruneCalled != tt.wantPrune {
				t.Fatalf("prune called = %v, want %v", store.pruneCalled, tt.wantPrune)
			}
			if tt.wantPrune {
				if store.prunedBefore != tt.wantCutoff {
					t.Errorf("cutoff = %d, want %d", store.prunedBefore, tt.wantCutoff)
				}
				if deleted != 7 {
					t.Errorf("deleted = %d, want the store's count", deleted)
				}
			} else if deleted != 0 {
				t.Errorf("deleted = %d, want 0", deleted)
			}
		})
	}
}

func TestPrunerCheckpointBeforePrune(t *testing.T) {
	store := &fakeCheckpointStore{saveErr: errors.New("disk full")}
	p := NewPruner(&RetentionConfig{KeepTicks: 0}, store, snapshotAt(50))

	if _, err := p.Prune(context.Background()); err == nil {
		t.Fatal("Prune() succeeded despite a checkpoint failure")
	}
	if store.pruneCalled {
		t.Error("pruned events without a durable checkpoint")
	}
}

func TestPrunerSnapshotFailure(t *testing.T) {
	store := &fakeCheckpointStore{}
	p := NewPruner(nil, store, func() (uint64, []byte, error) {
		return 0, nil, errors.New("engine stopped")
	})

	if _, err := p.Prune(context.Background()); err == nil {
		t.Fatal("Prune() succeeded despite a snapshot failure")
	}
	if store.savedTick != 0 || store.savedData != nil {
		t.Error("saved a checkpoint from a failed snapshot")
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	p := NewPruner(&RetentionConfig{CheckpointSchedule: "not a schedule"}, &fakeCheckpointStore{}, snapshotAt(1))
	s := NewScheduler(p)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() accepted an invalid cron expression")
	}
	if s.IsRunning() {
		t.Error("scheduler running after a failed start")
	}
}

func TestSchedulerEmptyScheduleDisabled(t *testing.T) {
	p := NewPruner(&RetentionConfig{CheckpointSchedule: ""}, &fakeCheckpointStore{}, snapshotAt(1))
	s := NewScheduler(p)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler running with no schedule configured")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	p := NewPruner(&RetentionConfig{CheckpointSchedule: "0 * * * *"}, &fakeCheckpointStore{}, snapshotAt(1))
	s := NewScheduler(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler not running after Start")
	}
	if s.NextRun() == nil {
		t.Error("NextRun() = nil for a scheduled job")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}
