// Package vehicle assembles wheeled vehicles on a chassis body and turns driver input into commands
package vehicle

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/scene"
)

// Builder attaches vehicle constraints to chassis bodies created by a body.Factory
type Builder struct {
	world    physics.World
	registry *body.Registry
	log      zerolog.Logger
}

func NewBuilder(world physics.World, registry *body.Registry, logger zerolog.Logger) *Builder {
	return &Builder{
		world:    world,
		registry: registry,
		log:      logger.With().Str("component", "vehicle").Logger(),
	}
}

// Build validates cfg, creates the constraint, registers it and its step listener,
// and hangs one wheel proxy per wheel under the chassis proxy
// Nothing is attached to the world when an error is returned
func (b *Builder) Build(chassis physics.Body, cfg Config) (*Vehicle, error) {
	if !b.world.Initialized() {
		return nil, physics.ErrNotInitialized
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chassisProxy, ok := b.registry.Proxy(chassis.ID())
	if !ok {
		return nil, fmt.Errorf("%w: chassis %d has no proxy", physics.ErrBodyRegistration, chassis.ID())
	}
	for _, w := range cfg.Lint() {
		b.log.Warn().Uint32("chassis", uint32(chassis.ID())).Msg(w)
	}

	constraint, err := b.world.CreateVehicle(chassis, cfg.Settings())
	if err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}

	tester := cfg.Tester
	if tester == nil {
		tester = physics.CastRay{Layer: physics.LayerMoving}
	}
	constraint.SetCollisionTester(tester)
	constraint.SetCallbacks(withDefaultCallbacks(cfg.Callbacks))

	b.world.AddConstraint(constraint)
	handle := b.world.AddStepListener(constraint.StepListener())

	v := &Vehicle{
		constraint: constraint,
		chassis:    chassis,
		listener:   handle,
		right:      cfg.WheelRight,
		up:         cfg.WheelUp,
		wheels:     make([]*scene.Node, len(cfg.Wheels)),
	}
	for i, w := range cfg.Wheels {
		n := scene.NewNode(fmt.Sprintf("%s/wheel%d", chassisProxy.Name, i), scene.Cylinder(w.Radius, w.Width), cfg.WheelColor)
		chassisProxy.AddChild(n)
		v.wheels[i] = n
	}
	if err := v.SyncWheels(); err != nil {
		// Constraint is attached, the caller tears it down through the lifecycle
		b.log.Error().Err(err).Msg("initial wheel sync failed")
	}

	b.log.Info().
		Uint32("chassis", uint32(chassis.ID())).
		Int("wheels", len(cfg.Wheels)).
		Int("differentials", len(cfg.Powertrain.Differentials)).
		Int("anti_roll_bars", len(cfg.AntiRollBars)).
		Msg("vehicle attached")
	return v, nil
}

// CombinedFriction mixes tire and surface friction as the geometric mean
func CombinedFriction(_ int, _ physics.FrictionDirection, tireFriction float64, other physics.Body) float64 {
	if other == nil {
		return tireFriction
	}
	return math.Sqrt(tireFriction * other.Friction())
}

// TireMaxImpulse scales the suspension impulse by the friction of each axis
func TireMaxImpulse(_ int, suspensionImpulse, longFriction, latFriction, _, _, _ float64) physics.TireImpulse {
	return physics.TireImpulse{
		Longitudinal: longFriction * suspensionImpulse,
		Lateral:      latFriction * suspensionImpulse,
	}
}

func withDefaultCallbacks(cb physics.VehicleCallbacks) physics.VehicleCallbacks {
	if cb.CombinedFriction == nil {
		cb.CombinedFriction = CombinedFriction
	}
	if cb.TireMaxImpulse == nil {
		cb.TireMaxImpulse = TireMaxImpulse
	}
	return cb
}
