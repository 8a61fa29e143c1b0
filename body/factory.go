// Package body creates physics bodies together with their scene proxies
package body

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/scene"
)

// Spec describes one body to create
type Spec struct {
	Name     string
	Shape    physics.ShapeDescriptor
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Motion   physics.MotionKind
	Layer    physics.Layer
	// Mass overrides the shape mass of dynamic bodies when > 0
	Mass     float64
	Friction float64
	Color    uint32
	// Proxy is used as-is when set, otherwise one is synthesized from Shape
	Proxy *scene.Node
}

// Factory creates bodies, binds proxies and records the pairs
type Factory struct {
	world    physics.World
	scene    *scene.Scene
	registry *Registry
	log      zerolog.Logger
}

func NewFactory(world physics.World, sc *scene.Scene, registry *Registry, logger zerolog.Logger) *Factory {
	return &Factory{
		world:    world,
		scene:    sc,
		registry: registry,
		log:      logger.With().Str("component", "body").Logger(),
	}
}

// Registry returns the pair registry the factory fills
func (f *Factory) Registry() *Registry { return f.registry }

// CreateBody builds shape and body, adds it to the world and tracks its proxy
// On failure every engine resource created so far is released
func (f *Factory) CreateBody(ctx context.Context, spec Spec) (physics.Body, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !f.world.Initialized() {
		return nil, physics.ErrNotInitialized
	}

	shape, err := f.world.CreateShape(spec.Shape)
	if err != nil {
		return nil, wrap(physics.ErrShapeCreation, spec.Name, err)
	}

	rot := spec.Rotation
	if rot == (mgl64.Quat{}) {
		rot = mgl64.QuatIdent()
	}
	settings := physics.BodySettings{
		Shape:    shape,
		Position: spec.Position,
		Rotation: rot,
		Motion:   spec.Motion,
		Layer:    spec.Layer,
		Friction: spec.Friction,
	}
	if spec.Motion == physics.MotionDynamic && spec.Mass > 0 {
		settings.MassOverride = spec.Mass
	}

	b, err := f.world.CreateBody(settings)
	if err != nil {
		f.world.ReleaseShape(shape)
		return nil, wrap(physics.ErrBodyRegistration, spec.Name, err)
	}

	activation := physics.Activate
	if spec.Motion == physics.MotionStatic {
		activation = physics.DontActivate
	}
	err = f.world.AddBody(b.ID(), activation)
	if err == nil && !f.world.IsAdded(b.ID()) {
		err = fmt.Errorf("body %d not added", b.ID())
	}
	if err != nil {
		f.world.DestroyBody(b.ID())
		f.world.ReleaseShape(shape)
		return nil, wrap(physics.ErrBodyRegistration, spec.Name, err)
	}
	// The body holds its own reference from here on
	f.world.ReleaseShape(shape)

	proxy := spec.Proxy
	if proxy == nil {
		proxy = scene.NewNode(spec.Name, scene.Synthesize(spec.Shape), spec.Color)
	}
	proxy.Body = b.ID()
	proxy.Position = b.Position()
	proxy.Orientation = b.Rotation()
	if proxy.Parent == nil {
		f.scene.Add(proxy)
	}
	f.registry.track(Pair{Body: b, Proxy: proxy})

	f.log.Debug().
		Str("name", spec.Name).
		Uint32("id", uint32(b.ID())).
		Stringer("motion", spec.Motion).
		Stringer("shape", spec.Shape.Kind()).
		Msg("body created")
	return b, nil
}

// wrap tags err with sentinel unless the engine already did
func wrap(sentinel error, name string, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %v", name, sentinel, err)
}
