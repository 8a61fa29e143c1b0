// Package status holds live game telemetry shared by the loop, HUD and exporters
package status

import (
	"context"
	"sync/atomic"
)

// Well-known keys written by the frame loop
const (
	KeyRPM           = "vehicle.rpm"
	KeySpeed         = "vehicle.speed"
	KeyGear          = "vehicle.gear"
	KeyThrottle      = "driver.throttle"
	KeySteer         = "driver.steer"
	KeyBrake         = "driver.brake"
	KeyHandbrake     = "driver.handbrake"
	KeySubsteps      = "loop.substeps"
	KeyFrames        = "loop.frames"
	KeySkippedFrames = "loop.skipped"
	KeyStepMillis    = "loop.step_ms"
	KeyPaused        = "game.paused"
	KeyMuted         = "audio.muted"
	KeyState         = "game.state"
	KeyCamera        = "render.camera"
)

// Registry groups typed metric maps
// Writers cache cell pointers during setup and store into them each frame
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of metrics of all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Numeric returns every int and float metric keyed by name, bools as 0/1
func (r *Registry) Numeric() map[string]float64 {
	out := make(map[string]float64, r.Ints.Count()+r.Floats.Count()+r.Bools.Count())
	r.Ints.Range(func(k string, v *atomic.Int64) { out[k] = float64(v.Load()) })
	r.Floats.Range(func(k string, v *AtomicFloat) { out[k] = v.Get() })
	r.Bools.Range(func(k string, v *atomic.Bool) {
		if v.Load() {
			out[k] = 1
		} else {
			out[k] = 0
		}
	})
	return out
}

// Service exposes the registry through the service lifecycle
type Service struct {
	registry *Registry
}

func NewService() *Service {
	return &Service{registry: NewRegistry()}
}

func (s *Service) Name() string               { return "status" }
func (s *Service) Dependencies() []string     { return nil }
func (s *Service) Init(context.Context) error { return nil }
func (s *Service) Start() error               { return nil }
func (s *Service) Stop() error                { return nil }

func (s *Service) Registry() *Registry { return s.registry }
