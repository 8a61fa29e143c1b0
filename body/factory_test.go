package body

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/physics/arcade"
	"github.com/lixenwraith/vi-rally/physics/physicstest"
	"github.com/lixenwraith/vi-rally/scene"
)

func newArcadeFactory(t *testing.T, s arcade.Settings) (*Factory, *arcade.World, *scene.Scene) {
	t.Helper()
	w := arcade.NewWorld(s)
	t.Cleanup(func() { _ = w.Close() })
	sc := scene.New()
	return NewFactory(w, sc, NewRegistry(), zerolog.Nop()), w, sc
}

func boxSpec(name string, motion physics.MotionKind) Spec {
	layer := physics.LayerMoving
	if motion == physics.MotionStatic {
		layer = physics.LayerNonMoving
	}
	return Spec{
		Name:     name,
		Shape:    physics.Box{HalfExtent: mgl64.Vec3{1, 1, 1}},
		Position: mgl64.Vec3{3, 4, 5},
		Motion:   motion,
		Layer:    layer,
		Color:    0xff0000,
	}
}

func TestCreateBody_Partition(t *testing.T) {
	f, w, sc := newArcadeFactory(t, arcade.DefaultSettings())
	ctx := context.Background()

	ground, err := f.CreateBody(ctx, boxSpec("ground", physics.MotionStatic))
	if err != nil {
		t.Fatalf("static: %v", err)
	}
	crate, err := f.CreateBody(ctx, boxSpec("crate", physics.MotionDynamic))
	if err != nil {
		t.Fatalf("dynamic: %v", err)
	}

	reg := f.Registry()
	if len(reg.Static()) != 1 || reg.Static()[0].Body.ID() != ground.ID() {
		t.Errorf("static pairs = %v", reg.Static())
	}
	if len(reg.Dynamic()) != 1 || reg.Dynamic()[0].Body.ID() != crate.ID() {
		t.Errorf("dynamic pairs = %v", reg.Dynamic())
	}
	if !w.IsAdded(ground.ID()) || !w.IsAdded(crate.ID()) {
		t.Error("bodies not added to world")
	}
	if ground.IsActive() {
		t.Error("static body should not be activated")
	}
	if !crate.IsActive() {
		t.Error("dynamic body should be activated")
	}
	if sc.Len() != 2 {
		t.Errorf("scene nodes = %d, want 2", sc.Len())
	}
	// Bodies hold the only shape references after creation
	if w.LiveShapes() != 2 {
		t.Errorf("live shapes = %d, want 2", w.LiveShapes())
	}
}

func TestCreateBody_Proxy(t *testing.T) {
	f, _, sc := newArcadeFactory(t, arcade.DefaultSettings())
	ctx := context.Background()

	spec := boxSpec("synth", physics.MotionDynamic)
	spec.Rotation = mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
	b, err := f.CreateBody(ctx, spec)
	if err != nil {
		t.Fatal(err)
	}
	proxy, ok := f.Registry().Proxy(b.ID())
	if !ok {
		t.Fatal("no proxy tracked")
	}
	if proxy.Geometry.Kind != scene.GeometryBox || proxy.Color != 0xff0000 {
		t.Errorf("synthesized proxy = %+v", proxy.Geometry)
	}
	if proxy.Body != b.ID() {
		t.Errorf("proxy bound to %d, want %d", proxy.Body, b.ID())
	}
	if !proxy.Position.ApproxEqualThreshold(spec.Position, 1e-9) {
		t.Errorf("proxy position = %v", proxy.Position)
	}
	if !proxy.Orientation.ApproxEqualThreshold(spec.Rotation, 1e-9) {
		t.Errorf("proxy orientation = %v", proxy.Orientation)
	}

	// A caller proxy already in the tree keeps its parent
	parent := scene.Group("car")
	sc.Add(parent)
	custom := scene.NewNode("custom", scene.Cylinder(0.3, 0.2), 0)
	parent.AddChild(custom)
	spec = boxSpec("custom", physics.MotionDynamic)
	spec.Proxy = custom
	b2, err := f.CreateBody(ctx, spec)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Registry().Proxy(b2.ID()); got != custom {
		t.Error("custom proxy replaced")
	}
	if custom.Parent != parent {
		t.Error("custom proxy re-parented")
	}
	if custom.Geometry.Kind != scene.GeometryCylinder {
		t.Error("custom proxy geometry overwritten")
	}
}

func TestCreateBody_MassOverride(t *testing.T) {
	f, _, _ := newArcadeFactory(t, arcade.DefaultSettings())
	ctx := context.Background()

	spec := boxSpec("heavy", physics.MotionDynamic)
	spec.Mass = 17
	b, err := f.CreateBody(ctx, spec)
	if err != nil {
		t.Fatal(err)
	}
	if b.Mass() != 17 {
		t.Errorf("dynamic mass = %v, want 17", b.Mass())
	}

	fw := physicstest.NewWorld()
	ff := NewFactory(fw, scene.New(), NewRegistry(), zerolog.Nop())
	spec = boxSpec("wall", physics.MotionStatic)
	spec.Mass = 17
	sb, err := ff.CreateBody(ctx, spec)
	if err != nil {
		t.Fatal(err)
	}
	if sb.Mass() != 0 {
		t.Errorf("static body got mass override %v", sb.Mass())
	}
}

func TestCreateBody_ShapeFailure(t *testing.T) {
	f, w, sc := newArcadeFactory(t, arcade.DefaultSettings())
	spec := boxSpec("flat", physics.MotionDynamic)
	spec.Shape = physics.Box{HalfExtent: mgl64.Vec3{1, 0, 1}}

	_, err := f.CreateBody(context.Background(), spec)
	if !errors.Is(err, physics.ErrShapeCreation) {
		t.Fatalf("err = %v, want ErrShapeCreation", err)
	}
	if f.Registry().Len() != 0 || sc.Len() != 0 || w.BodyCount() != 0 {
		t.Error("failed creation left state behind")
	}
}

func TestCreateBody_BodyLimit(t *testing.T) {
	s := arcade.DefaultSettings()
	s.MaxBodies = 1
	f, w, _ := newArcadeFactory(t, s)
	ctx := context.Background()

	if _, err := f.CreateBody(ctx, boxSpec("first", physics.MotionDynamic)); err != nil {
		t.Fatal(err)
	}
	_, err := f.CreateBody(ctx, boxSpec("second", physics.MotionDynamic))
	if !errors.Is(err, physics.ErrBodyRegistration) {
		t.Fatalf("err = %v, want ErrBodyRegistration", err)
	}
	if w.LiveShapes() != 1 {
		t.Errorf("live shapes = %d, want 1 (rejected shape released)", w.LiveShapes())
	}
	if f.Registry().Len() != 1 {
		t.Errorf("registry = %d, want 1", f.Registry().Len())
	}
}

func TestCreateBody_AddFailureRollsBack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*physicstest.World)
	}{
		{"add error", func(w *physicstest.World) { w.FailAdd = true }},
		{"not added", func(w *physicstest.World) { w.SkipAdd = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := physicstest.NewWorld()
			tt.setup(w)
			f := NewFactory(w, scene.New(), NewRegistry(), zerolog.Nop())

			_, err := f.CreateBody(context.Background(), boxSpec("x", physics.MotionDynamic))
			if !errors.Is(err, physics.ErrBodyRegistration) {
				t.Fatalf("err = %v", err)
			}
			if w.Count("DestroyBody") != 1 || w.Count("ReleaseShape") != 1 {
				t.Errorf("calls = %v", w.Calls)
			}
			if len(w.Bodies) != 0 || f.Registry().Len() != 0 {
				t.Error("body leaked")
			}
		})
	}
}

func TestCreateBody_Preconditions(t *testing.T) {
	w := physicstest.NewWorld()
	f := NewFactory(w, scene.New(), NewRegistry(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.CreateBody(ctx, boxSpec("x", physics.MotionDynamic)); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v", err)
	}

	w.Closed = true
	if _, err := f.CreateBody(context.Background(), boxSpec("x", physics.MotionDynamic)); !errors.Is(err, physics.ErrNotInitialized) {
		t.Errorf("closed world err = %v", err)
	}
	if len(w.Calls) != 0 {
		t.Errorf("engine touched: %v", w.Calls)
	}
}

func TestRegistry_Drain(t *testing.T) {
	w := physicstest.NewWorld()
	f := NewFactory(w, scene.New(), NewRegistry(), zerolog.Nop())
	ctx := context.Background()
	for _, m := range []physics.MotionKind{physics.MotionStatic, physics.MotionDynamic, physics.MotionDynamic} {
		if _, err := f.CreateBody(ctx, boxSpec("b", m)); err != nil {
			t.Fatal(err)
		}
	}
	reg := f.Registry()
	if got := len(reg.DrainDynamic()); got != 2 {
		t.Errorf("drained dynamic = %d, want 2", got)
	}
	if got := len(reg.DrainStatic()); got != 1 {
		t.Errorf("drained static = %d, want 1", got)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d after drain", reg.Len())
	}
	if _, ok := reg.Proxy(1); ok {
		t.Error("proxy lookup survived drain")
	}
}
