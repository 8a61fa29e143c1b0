package audio

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
)

// Cylinders sets the firing frequency: rpm/60 * cylinders/2 for a four-stroke
const Cylinders = 4

// EngineGenerator is an endless streamer whose pitch follows the engine RPM
// SetRPM and SetThrottle may be called from any goroutine
type EngineGenerator struct {
	sr beep.SampleRate

	rpm      atomic.Uint64
	throttle atomic.Uint64

	phase   float64
	sub     float64
	freq    float64
	amp     float64
	noise   uint32
	started bool
}

func NewEngineGenerator(sr beep.SampleRate) *EngineGenerator {
	return &EngineGenerator{sr: sr, noise: 0x1234567}
}

func (g *EngineGenerator) SetRPM(rpm float64) {
	if rpm < 0 {
		rpm = 0
	}
	g.rpm.Store(math.Float64bits(rpm))
}

func (g *EngineGenerator) SetThrottle(throttle float64) {
	g.throttle.Store(math.Float64bits(math.Min(math.Abs(throttle), 1)))
}

func (g *EngineGenerator) RPM() float64 { return math.Float64frombits(g.rpm.Load()) }

// FiringFrequency returns the fundamental in Hz for rpm
func FiringFrequency(rpm float64) float64 {
	return rpm / 60 * Cylinders / 2
}

func (g *EngineGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	targetFreq := FiringFrequency(g.RPM())
	targetAmp := 0.0
	if targetFreq > 0 {
		targetAmp = 0.06 + 0.12*math.Float64frombits(g.throttle.Load())
	}
	if !g.started {
		g.freq, g.amp = targetFreq, targetAmp
		g.started = true
	}
	rate := float64(g.sr)

	for i := range samples {
		// Glide towards the target to avoid clicks when RPM jumps between frames
		g.freq += (targetFreq - g.freq) * 0.002
		g.amp += (targetAmp - g.amp) * 0.002

		saw := 2*g.phase - 1
		body := math.Sin(2 * math.Pi * g.sub)
		g.noise = g.noise*1664525 + 1013904223
		rumble := float64(g.noise>>8)/float64(1<<24)*2 - 1

		v := g.amp * (0.5*saw + 0.4*body + 0.1*rumble)
		samples[i][0] = v
		samples[i][1] = v

		g.phase += g.freq / rate
		g.phase -= math.Floor(g.phase)
		g.sub += g.freq / 2 / rate
		g.sub -= math.Floor(g.sub)
	}
	return len(samples), true
}

func (g *EngineGenerator) Err() error { return nil }
