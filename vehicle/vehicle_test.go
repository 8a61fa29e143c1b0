package vehicle

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/input"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/physics/arcade"
	"github.com/lixenwraith/vi-rally/physics/physicstest"
	"github.com/lixenwraith/vi-rally/scene"
)

type fixture struct {
	world    *physicstest.World
	factory  *body.Factory
	builder  *Builder
	chassis  physics.Body
	chassisN *scene.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := physicstest.NewWorld()
	reg := body.NewRegistry()
	f := body.NewFactory(w, scene.New(), reg, zerolog.Nop())
	chassis, err := f.CreateBody(context.Background(), DefaultPreset().ChassisSpec())
	if err != nil {
		t.Fatalf("chassis: %v", err)
	}
	n, _ := reg.Proxy(chassis.ID())
	w.Calls = nil
	return &fixture{
		world:    w,
		factory:  f,
		builder:  NewBuilder(w, reg, zerolog.Nop()),
		chassis:  chassis,
		chassisN: n,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"preset", func(*Config) {}, true},
		{"differential right out of range", func(c *Config) { c.Powertrain.Differentials[0].Right = 4 }, false},
		{"differential negative", func(c *Config) { c.Powertrain.Differentials[0].Left = -1 }, false},
		{"anti-roll bar out of range", func(c *Config) { c.AntiRollBars[1].Left = 7 }, false},
		{"no wheels", func(c *Config) { c.Wheels = nil }, false},
		{"six wheels", func(c *Config) {
			c.Wheels = append(c.Wheels, c.Wheels[WheelRL], c.Wheels[WheelRR])
			c.Powertrain.Differentials[0].Right = 5
		}, false},
		{"three wheels", func(c *Config) { c.Wheels = c.Wheels[:3] }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPreset().Config()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, physics.ErrInvalidWheelIndex) {
				t.Errorf("err = %v, want ErrInvalidWheelIndex", err)
			}
		})
	}
}

func TestConfig_Lint(t *testing.T) {
	cfg := DefaultPreset().Config()
	if w := cfg.Lint(); len(w) != 0 {
		t.Errorf("preset warnings: %v", w)
	}
	cfg.Powertrain.Differentials[0].EngineTorqueRatio = 0.7
	cfg.Wheels[WheelRR].MaxSteerAngle = 0.1
	if w := cfg.Lint(); len(w) != 2 {
		t.Errorf("warnings = %v, want 2", w)
	}
}

func TestPreset_Geometry(t *testing.T) {
	p := DefaultPreset()
	cfg := p.Config()
	if len(cfg.Wheels) != 4 {
		t.Fatalf("wheels = %d", len(cfg.Wheels))
	}

	wheelBase := p.HalfLength / p.WheelBaseDivisor
	fl := cfg.Wheels[WheelFL].Position
	want := mgl64.Vec3{1.495, 0.67, wheelBase + 0.4}
	if !fl.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("FL = %v, want %v", fl, want)
	}
	if rr := cfg.Wheels[WheelRR].Position; math.Abs(rr.X()+1.495) > 1e-9 || math.Abs(rr.Z()-(-wheelBase+0.2)) > 1e-9 {
		t.Errorf("RR = %v", rr)
	}

	if cfg.Wheels[WheelFL].MaxSteerAngle == 0 || cfg.Wheels[WheelRL].MaxSteerAngle != 0 {
		t.Error("only front wheels should steer")
	}
	if cfg.Wheels[WheelFR].MaxHandBrakeTorque != 0 || cfg.Wheels[WheelRR].MaxHandBrakeTorque != 4000 {
		t.Error("handbrake should act on rear wheels only")
	}

	// Front longitudinal peak point at (0.05*5, 1.2*5)
	if got := cfg.Wheels[WheelFL].LongitudinalFriction.Value(0.25); math.Abs(got-6) > 1e-9 {
		t.Errorf("front longitudinal peak = %v, want 6", got)
	}
	if got := cfg.Wheels[WheelRL].LateralFriction.Value(0.5); math.Abs(got-5.5) > 1e-9 {
		t.Errorf("rear lateral peak = %v, want 5.5", got)
	}

	if len(cfg.Powertrain.Differentials) != 1 || cfg.Powertrain.Differentials[0].Left != WheelRL {
		t.Errorf("differentials = %+v, want rear only", cfg.Powertrain.Differentials)
	}
	if len(cfg.AntiRollBars) != 2 {
		t.Errorf("anti-roll bars = %d", len(cfg.AntiRollBars))
	}
	if _, ok := cfg.Tester.(physics.CastCylinder); !ok {
		t.Errorf("tester = %T", cfg.Tester)
	}
}

func TestPreset_FourWheelDrive(t *testing.T) {
	p := DefaultPreset()
	p.FourWheelDrive = true
	cfg := p.Config()
	diffs := cfg.Powertrain.Differentials
	if len(diffs) != 2 {
		t.Fatalf("differentials = %d", len(diffs))
	}
	if diffs[0].EngineTorqueRatio != 0.5 || diffs[1].EngineTorqueRatio != 0.5 {
		t.Errorf("torque split = %v/%v", diffs[0].EngineTorqueRatio, diffs[1].EngineTorqueRatio)
	}
	if cfg.Powertrain.DifferentialLimitedSlipRatio != 1.4 {
		t.Errorf("inter-axle ratio = %v", cfg.Powertrain.DifferentialLimitedSlipRatio)
	}
	if len(cfg.Lint()) != 0 {
		t.Error("4WD split should not warn")
	}
}

func TestBuild_InvalidWheelIndexAttachesNothing(t *testing.T) {
	fx := newFixture(t)
	cfg := DefaultPreset().Config()
	cfg.AntiRollBars[0].Right = 9

	_, err := fx.builder.Build(fx.chassis, cfg)
	if !errors.Is(err, physics.ErrInvalidWheelIndex) {
		t.Fatalf("err = %v", err)
	}
	if len(fx.world.Calls) != 0 {
		t.Errorf("world touched: %v", fx.world.Calls)
	}
	if len(fx.chassisN.Children) != 0 {
		t.Error("wheel proxies created")
	}
}

func TestBuild_AttachesInOrder(t *testing.T) {
	fx := newFixture(t)
	v, err := fx.builder.Build(fx.chassis, DefaultPreset().Config())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"CreateVehicle", "AddConstraint", "AddStepListener"}
	if len(fx.world.Calls) != len(want) {
		t.Fatalf("calls = %v", fx.world.Calls)
	}
	for i, c := range want {
		if fx.world.Calls[i] != c {
			t.Errorf("call %d = %s, want %s", i, fx.world.Calls[i], c)
		}
	}

	fv := fx.world.Vehicles[0]
	if _, ok := fv.Tester.(physics.CastCylinder); !ok {
		t.Errorf("tester = %T", fv.Tester)
	}
	if fv.Callbacks.CombinedFriction == nil || fv.Callbacks.TireMaxImpulse == nil {
		t.Error("default callbacks not installed")
	}
	if _, ok := fx.world.Listeners[v.Listener()]; !ok {
		t.Error("listener handle not registered")
	}

	if len(v.Wheels()) != 4 || len(fx.chassisN.Children) != 4 {
		t.Fatalf("wheel proxies = %d, chassis children = %d", len(v.Wheels()), len(fx.chassisN.Children))
	}
	for i, n := range v.Wheels() {
		if n.Parent != fx.chassisN {
			t.Errorf("wheel %d not parented to chassis proxy", i)
		}
		if n.Geometry.Kind != scene.GeometryCylinder {
			t.Errorf("wheel %d geometry = %v", i, n.Geometry.Kind)
		}
	}
}

func TestBuild_Failures(t *testing.T) {
	fx := newFixture(t)
	fx.world.FailVehicle = true
	if _, err := fx.builder.Build(fx.chassis, DefaultPreset().Config()); !errors.Is(err, physics.ErrBodyRegistration) {
		t.Errorf("engine rejection err = %v", err)
	}
	if fx.world.Count("AddConstraint") != 0 {
		t.Error("constraint added after failed creation")
	}

	orphan := &physicstest.Body{BodyID: 99, Kind: physics.MotionDynamic}
	if _, err := fx.builder.Build(orphan, DefaultPreset().Config()); !errors.Is(err, physics.ErrBodyRegistration) {
		t.Errorf("chassis without proxy err = %v", err)
	}

	fx.world.Closed = true
	if _, err := fx.builder.Build(fx.chassis, DefaultPreset().Config()); !errors.Is(err, physics.ErrNotInitialized) {
		t.Errorf("closed world err = %v", err)
	}
}

func TestVehicle_SyncWheels(t *testing.T) {
	fx := newFixture(t)
	v, err := fx.builder.Build(fx.chassis, DefaultPreset().Config())
	if err != nil {
		t.Fatal(err)
	}
	fv := fx.world.Vehicles[0]
	for i := range fv.Local {
		fv.Local[i] = physics.Transform{Position: mgl64.Vec3{float64(i), 2, 3}, Rotation: mgl64.QuatIdent()}
	}
	if err := v.SyncWheels(); err != nil {
		t.Fatal(err)
	}

	for i, n := range v.Wheels() {
		if !n.Position.ApproxEqualThreshold(mgl64.Vec3{float64(i), 2, 3}, 1e-12) {
			t.Errorf("wheel %d position = %v", i, n.Position)
		}
		// Identity local rotation leaves only the quarter turn about X
		up := n.Orientation.Rotate(mgl64.Vec3{0, 1, 0})
		want := mgl64.Vec3{0, 0, 1}
		if IsLeft(i) {
			want = mgl64.Vec3{0, 0, -1}
		}
		if !up.ApproxEqualThreshold(want, 1e-9) {
			t.Errorf("wheel %d up = %v, want %v", i, up, want)
		}
		// Build syncs once, this call once more
		if fv.LocalCalls[i] != 2 {
			t.Errorf("wheel %d transform read %d times", i, fv.LocalCalls[i])
		}
	}
}

func TestCallbacks(t *testing.T) {
	other := &physicstest.Body{}
	if got := CombinedFriction(0, physics.FrictionLateral, 4, other); math.Abs(got-math.Sqrt(0.8)) > 1e-12 {
		t.Errorf("CombinedFriction = %v", got)
	}
	if got := CombinedFriction(0, physics.FrictionLateral, 4, nil); got != 4 {
		t.Errorf("CombinedFriction without body = %v", got)
	}
	imp := TireMaxImpulse(1, 100, 1.5, 0.5, 0, 0, 1.0/60)
	if imp.Longitudinal != 150 || imp.Lateral != 50 {
		t.Errorf("TireMaxImpulse = %+v", imp)
	}
}

func TestDriver_Update(t *testing.T) {
	facingZ := mgl64.QuatIdent()
	tests := []struct {
		name     string
		prev     float64
		in       input.Snapshot
		rot      mgl64.Quat
		vel      mgl64.Vec3
		want     DriverCommand
		wantPrev float64
	}{
		{"idle", 1, input.Snapshot{}, facingZ, mgl64.Vec3{}, DriverCommand{}, 1},
		{"forward", 1, input.Snapshot{Forward: true}, facingZ, mgl64.Vec3{}, DriverCommand{Throttle: 1}, 1},
		{"forward wins over backward", 1, input.Snapshot{Forward: true, Backward: true}, facingZ, mgl64.Vec3{}, DriverCommand{Throttle: 1}, 1},
		{"right wins over left", 1, input.Snapshot{Left: true, Right: true}, facingZ, mgl64.Vec3{}, DriverCommand{Steer: 1}, 1},
		{"left", 1, input.Snapshot{Left: true}, facingZ, mgl64.Vec3{}, DriverCommand{Steer: -1}, 1},
		{"reverse while rolling forward brakes", 1, input.Snapshot{Backward: true}, facingZ, mgl64.Vec3{0, 0, 5}, DriverCommand{Brake: 1}, 1},
		{"reverse when stopped", 1, input.Snapshot{Backward: true}, facingZ, mgl64.Vec3{0, 0, 0.05}, DriverCommand{Throttle: -1}, -1},
		{"forward while rolling back brakes", -1, input.Snapshot{Forward: true}, facingZ, mgl64.Vec3{0, 0, -3}, DriverCommand{Brake: 1}, -1},
		{"backward keeps reversing", -1, input.Snapshot{Backward: true}, facingZ, mgl64.Vec3{0, 0, -3}, DriverCommand{Throttle: -1}, -1},
		// Turned around, world +Z motion is backwards for the car
		{"velocity read in chassis frame", 1, input.Snapshot{Backward: true}, mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0}), mgl64.Vec3{0, 0, 5}, DriverCommand{Throttle: -1}, -1},
		{"handbrake cuts throttle keeps steer", 1, input.Snapshot{Forward: true, Right: true, Handbrake: true}, facingZ, mgl64.Vec3{}, DriverCommand{Steer: 1, Handbrake: 1}, 1},
		{"handbrake during reverse brake", 1, input.Snapshot{Backward: true, Handbrake: true}, facingZ, mgl64.Vec3{0, 0, 5}, DriverCommand{Brake: 1, Handbrake: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver()
			d.previousForward = tt.prev
			chassis := &physicstest.Body{Rot: tt.rot, LinVel: tt.vel}
			got := d.Update(tt.in, chassis)
			if got != tt.want {
				t.Errorf("command = %+v, want %+v", got, tt.want)
			}
			if d.PreviousForward() != tt.wantPrev {
				t.Errorf("previousForward = %v, want %v", d.PreviousForward(), tt.wantPrev)
			}
		})
	}
}

func TestApply_ActivatesOnlyWhenActive(t *testing.T) {
	fx := newFixture(t)
	v, err := fx.builder.Build(fx.chassis, DefaultPreset().Config())
	if err != nil {
		t.Fatal(err)
	}
	ctrl := fx.world.Vehicles[0].Ctrl

	Apply(fx.world, v, DriverCommand{})
	if fx.world.Count("ActivateBody") != 0 {
		t.Error("idle command woke the chassis")
	}
	Apply(fx.world, v, DriverCommand{Steer: -1})
	if fx.world.Count("ActivateBody") != 1 {
		t.Error("active command did not wake the chassis")
	}
	if got := ctrl.Last(); got.Steer != -1 || len(ctrl.Inputs) != 2 {
		t.Errorf("controller inputs = %+v", ctrl.Inputs)
	}
}

func TestBuild_DrivesOnArcadeEngine(t *testing.T) {
	w := arcade.NewWorld(arcade.DefaultSettings())
	defer w.Close()
	reg := body.NewRegistry()
	f := body.NewFactory(w, scene.New(), reg, zerolog.Nop())
	ctx := context.Background()

	if _, err := f.CreateBody(ctx, body.Spec{
		Name:     "ground",
		Shape:    physics.Box{HalfExtent: mgl64.Vec3{200, 0.5, 200}},
		Position: mgl64.Vec3{0, -0.5, 0},
		Motion:   physics.MotionStatic,
		Layer:    physics.LayerNonMoving,
	}); err != nil {
		t.Fatal(err)
	}
	p := DefaultPreset()
	p.Spawn = []float64{0, 1, 0}
	p.SpawnYaw = 0
	chassis, err := f.CreateBody(ctx, p.ChassisSpec())
	if err != nil {
		t.Fatal(err)
	}
	v, err := NewBuilder(w, reg, zerolog.Nop()).Build(chassis, p.Config())
	if err != nil {
		t.Fatal(err)
	}

	d := NewDriver()
	for i := 0; i < 180; i++ {
		Apply(w, v, d.Update(input.Snapshot{Forward: true}, chassis))
		if err := w.Step(1.0/60, 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := v.SyncWheels(); err != nil {
		t.Fatal(err)
	}
	if chassis.Position().Z() <= 0.5 {
		t.Errorf("chassis did not move forward: %v", chassis.Position())
	}
	if v.RPM() <= 0 {
		t.Errorf("RPM = %v", v.RPM())
	}
}
