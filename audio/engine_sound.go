// Package audio plays a synthesized engine note that follows the vehicle RPM
package audio

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/status"
)

const sampleRate = beep.SampleRate(44100)

// Config controls the engine sound
type Config struct {
	Enabled bool    `mapstructure:"enabled"`
	Volume  float64 `mapstructure:"volume"`
	// BufferMillis is the speaker buffer length
	BufferMillis int `mapstructure:"buffer_ms"`
}

func DefaultConfig() Config {
	return Config{Enabled: true, Volume: 0.6, BufferMillis: 100}
}

// EngineSound owns the speaker and a mixer carrying the engine generator
// Every method is a no-op when the speaker could not be opened
type EngineSound struct {
	cfg Config
	log zerolog.Logger

	mu          sync.Mutex
	mixer       *beep.Mixer
	gen         *EngineGenerator
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	initialized bool

	muted atomic.Bool

	// initSpeaker is swapped in tests
	initSpeaker func(sr beep.SampleRate, bufferSize int) error
}

func NewEngineSound(cfg Config, logger zerolog.Logger) *EngineSound {
	if cfg.BufferMillis <= 0 {
		cfg.BufferMillis = DefaultConfig().BufferMillis
	}
	es := &EngineSound{
		cfg:         cfg,
		log:         logger.With().Str("component", "audio").Logger(),
		mixer:       &beep.Mixer{},
		gen:         NewEngineGenerator(sampleRate),
		initSpeaker: speaker.Init,
	}
	es.muted.Store(!cfg.Enabled)
	return es
}

func (es *EngineSound) Name() string           { return "audio" }
func (es *EngineSound) Dependencies() []string { return []string{"status"} }

// Init opens the speaker, failure leaves the sound silent but is not an error
func (es *EngineSound) Init(ctx context.Context) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.initialized || !es.cfg.Enabled {
		return nil
	}
	if err := es.initSpeaker(sampleRate, sampleRate.N(time.Duration(es.cfg.BufferMillis)*time.Millisecond)); err != nil {
		es.log.Warn().Err(err).Msg("speaker unavailable, continuing without sound")
		return nil
	}
	es.ctrl = &beep.Ctrl{Streamer: es.gen, Paused: true}
	es.volume = &effects.Volume{
		Streamer: es.ctrl,
		Base:     2,
		Volume:   volumeLevel(es.cfg.Volume),
		Silent:   es.muted.Load(),
	}
	es.mixer.Add(es.volume)
	speaker.Play(es.mixer)
	es.initialized = true
	return nil
}

// Start unpauses the engine note
func (es *EngineSound) Start() error {
	es.mu.Lock()
	defer es.mu.Unlock()
	if !es.initialized {
		return nil
	}
	speaker.Lock()
	es.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Stop silences and clears the mixer
func (es *EngineSound) Stop() error {
	es.mu.Lock()
	defer es.mu.Unlock()
	if !es.initialized {
		return nil
	}
	speaker.Lock()
	es.ctrl.Paused = true
	es.mixer.Clear()
	speaker.Unlock()
	speaker.Clear()
	es.initialized = false
	return nil
}

// SetRPM updates the note pitch and loudness
func (es *EngineSound) SetRPM(rpm, throttle float64) {
	es.gen.SetRPM(rpm)
	es.gen.SetThrottle(throttle)
}

// ToggleMute flips mute and returns true when muted afterwards
func (es *EngineSound) ToggleMute() bool {
	muted := !es.muted.Load()
	es.muted.Store(muted)

	es.mu.Lock()
	defer es.mu.Unlock()
	if es.initialized {
		speaker.Lock()
		es.volume.Silent = muted
		speaker.Unlock()
	}
	return muted
}

func (es *EngineSound) IsMuted() bool { return es.muted.Load() }

// Active reports whether sound is actually reaching the speaker
func (es *EngineSound) Active() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.initialized && !es.muted.Load()
}

// OnFrame follows the RPM and throttle published for the frame
func (es *EngineSound) OnFrame(_ context.Context, reg *status.Registry) {
	rpm := reg.Floats.Get(status.KeyRPM).Get()
	throttle := reg.Floats.Get(status.KeyThrottle).Get()
	if reg.Bools.Get(status.KeyPaused).Load() {
		rpm, throttle = 0, 0
	}
	es.SetRPM(rpm, throttle)
}

// volumeLevel maps a 0..1 gain onto the base-2 exponent of effects.Volume
func volumeLevel(v float64) float64 {
	if v <= 0 {
		return -10
	}
	return math.Max(math.Log2(math.Min(v, 1)), -10)
}
