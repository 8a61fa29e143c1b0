package audio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/status"
)

func TestFiringFrequency(t *testing.T) {
	tests := []struct {
		rpm, want float64
	}{
		{0, 0},
		{600, 20},
		{3000, 100},
		{9000, 300},
	}
	for _, tt := range tests {
		if got := FiringFrequency(tt.rpm); got != tt.want {
			t.Errorf("FiringFrequency(%v) = %v, want %v", tt.rpm, got, tt.want)
		}
	}
}

func TestEngineGenerator_SilentAtZeroRPM(t *testing.T) {
	g := NewEngineGenerator(sampleRate)
	buf := make([][2]float64, 512)
	n, ok := g.Stream(buf)
	if n != len(buf) || !ok {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	for i, s := range buf {
		if s[0] != 0 || s[1] != 0 {
			t.Fatalf("sample %d = %v, want silence", i, s)
		}
	}
}

func TestEngineGenerator_FollowsRPM(t *testing.T) {
	g := NewEngineGenerator(sampleRate)
	g.SetRPM(4000)
	g.SetThrottle(-2)
	if g.RPM() != 4000 {
		t.Errorf("RPM = %v", g.RPM())
	}

	buf := make([][2]float64, 2048)
	g.Stream(buf)
	peak := 0.0
	for _, s := range buf {
		if s[0] != s[1] {
			t.Fatal("channels differ")
		}
		peak = math.Max(peak, math.Abs(s[0]))
	}
	if peak == 0 || peak > 1 {
		t.Errorf("peak = %v", peak)
	}

	g.SetRPM(-5)
	if g.RPM() != 0 {
		t.Errorf("negative rpm not clamped: %v", g.RPM())
	}
}

func TestEngineSound_NoSpeakerIsSilentNoop(t *testing.T) {
	es := NewEngineSound(DefaultConfig(), zerolog.Nop())
	es.initSpeaker = func(beep.SampleRate, int) error { return errors.New("no device") }

	if err := es.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := es.Start(); err != nil {
		t.Errorf("Start: %v", err)
	}
	if es.Active() {
		t.Error("active without speaker")
	}
	if !es.ToggleMute() || !es.IsMuted() {
		t.Error("mute not toggled")
	}
	if es.ToggleMute() {
		t.Error("unmute not toggled")
	}
	if err := es.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestEngineSound_DisabledSkipsSpeaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	es := NewEngineSound(cfg, zerolog.Nop())
	called := false
	es.initSpeaker = func(beep.SampleRate, int) error { called = true; return nil }

	if err := es.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("speaker opened while disabled")
	}
	if !es.IsMuted() {
		t.Error("disabled sound should start muted")
	}
}

func TestEngineSound_OnFrame(t *testing.T) {
	es := NewEngineSound(DefaultConfig(), zerolog.Nop())
	reg := status.NewRegistry()
	reg.Floats.Get(status.KeyRPM).Set(5200)
	reg.Floats.Get(status.KeyThrottle).Set(1)

	es.OnFrame(context.Background(), reg)
	if es.gen.RPM() != 5200 {
		t.Errorf("rpm = %v", es.gen.RPM())
	}

	reg.Bools.Get(status.KeyPaused).Store(true)
	es.OnFrame(context.Background(), reg)
	if es.gen.RPM() != 0 {
		t.Errorf("paused rpm = %v", es.gen.RPM())
	}
}

func TestVolumeLevel(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 0},
		{2, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -10},
	}
	for _, tt := range tests {
		if got := volumeLevel(tt.in); got != tt.want {
			t.Errorf("volumeLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
