package engine

import (
	"testing"
	"time"
)

func TestPausableClock_FreezesWhilePaused(t *testing.T) {
	mt := NewMockTimeProvider(time.Unix(0, 0))
	pc := NewPausableClock(mt)

	mt.Advance(2 * time.Second)
	if got := pc.Now(); !got.Equal(time.Unix(2, 0)) {
		t.Fatalf("Now = %v", got)
	}

	if !pc.Toggle() {
		t.Fatal("Toggle did not pause")
	}
	mt.Advance(5 * time.Second)
	if got := pc.Now(); !got.Equal(time.Unix(2, 0)) {
		t.Errorf("paused Now = %v", got)
	}
	if got := pc.TotalPauseDuration(); got != 5*time.Second {
		t.Errorf("TotalPauseDuration during pause = %v", got)
	}

	if pc.Toggle() {
		t.Fatal("Toggle did not resume")
	}
	mt.Advance(time.Second)
	if got := pc.Now(); !got.Equal(time.Unix(3, 0)) {
		t.Errorf("resumed Now = %v", got)
	}
	if !pc.RealTime().Equal(time.Unix(8, 0)) {
		t.Errorf("RealTime = %v", pc.RealTime())
	}
}

func TestPausableClock_RepeatedCallsAreNoops(t *testing.T) {
	mt := NewMockTimeProvider(time.Unix(0, 0))
	pc := NewPausableClock(mt)

	pc.Resume()
	pc.Pause()
	mt.Advance(time.Second)
	pc.Pause()
	mt.Advance(time.Second)
	pc.Resume()
	pc.Resume()
	if got := pc.TotalPauseDuration(); got != 2*time.Second {
		t.Errorf("TotalPauseDuration = %v", got)
	}
	if pc.IsPaused() {
		t.Error("still paused")
	}
}

func TestGameState(t *testing.T) {
	var gs GameState
	if gs.State() != StateLoading {
		t.Errorf("zero state = %v", gs.State())
	}
	gs.Set(StateError, "world closed")
	if gs.State() != StateError || gs.Message() != "world closed" {
		t.Errorf("state = %v %q", gs.State(), gs.Message())
	}
	if StateReady.String() != "ready" || State(9).String() != "unknown" {
		t.Error("String")
	}
}
