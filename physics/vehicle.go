package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/vmath"
)

// SpringMode selects how SpringSettings is interpreted
type SpringMode uint8

const (
	// SpringFrequency derives stiffness from Frequency (Hz) and damping ratio from Damping
	SpringFrequency SpringMode = iota
	// SpringStiffness uses Stiffness (N/m) and Damping (N*s/m) directly
	SpringStiffness
)

// SpringSettings parameterizes a suspension spring
type SpringSettings struct {
	Mode      SpringMode
	Frequency float64
	Stiffness float64
	Damping   float64
}

// WheelSettings describes one wheel in chassis space
type WheelSettings struct {
	Position mgl64.Vec3
	Radius   float64
	Width    float64
	Inertia  float64

	MaxSteerAngle      float64
	MaxBrakeTorque     float64
	MaxHandBrakeTorque float64

	SuspensionMinLength     float64
	SuspensionMaxLength     float64
	SuspensionPreloadLength float64
	Spring                  SpringSettings

	// LongitudinalFriction maps slip ratio to a friction multiplier
	LongitudinalFriction vmath.LinearCurve
	// LateralFriction maps slip angle in degrees to a friction multiplier
	LateralFriction vmath.LinearCurve
}

// EngineSettings describes the motor
type EngineSettings struct {
	MinRPM         float64
	MaxRPM         float64
	MaxTorque      float64
	AngularDamping float64
	Inertia        float64
	// NormalizedTorque maps rpm/MaxRPM to a fraction of MaxTorque, empty uses a flat-ish default
	NormalizedTorque vmath.LinearCurve
}

// TransmissionMode selects gear changes
type TransmissionMode uint8

const (
	TransmissionAuto TransmissionMode = iota
	TransmissionManual
)

// TransmissionSettings describes the gearbox
type TransmissionSettings struct {
	Mode           TransmissionMode
	GearRatios     []float64
	ReverseRatios  []float64
	ClutchStrength float64
	ShiftUpRPM     float64
	ShiftDownRPM   float64
}

// DifferentialSettings couples two wheels to the engine
type DifferentialSettings struct {
	LeftWheel         int
	RightWheel        int
	DifferentialRatio float64
	LeftRightSplit    float64
	// LimitedSlipRatio caps the faster/slower wheel speed ratio, 1 is locked and higher is more open
	// Zero uses the engine default
	LimitedSlipRatio float64
	// EngineTorqueRatio is this differential's share of engine torque, shares are not normalized
	EngineTorqueRatio float64
}

// AntiRollBar links the suspension of two wheels
type AntiRollBar struct {
	LeftWheel  int
	RightWheel int
	Stiffness  float64
}

// ControllerSettings holds the powertrain
type ControllerSettings struct {
	Engine        EngineSettings
	Transmission  TransmissionSettings
	Differentials []DifferentialSettings
	// DifferentialLimitedSlipRatio limits torque transfer between differentials
	DifferentialLimitedSlipRatio float64
}

// VehicleSettings is everything the engine needs to build a wheeled vehicle
type VehicleSettings struct {
	Up                mgl64.Vec3
	Forward           mgl64.Vec3
	MaxPitchRollAngle float64
	Wheels            []WheelSettings
	AntiRollBars      []AntiRollBar
	Controller        ControllerSettings
}

// --- Collision testers ---

// CollisionTester selects how wheels probe the ground
type CollisionTester interface {
	TesterLayer() Layer
}

// CastRay probes along the suspension direction with a ray
type CastRay struct {
	Layer Layer
}

func (c CastRay) TesterLayer() Layer { return c.Layer }

// CastSphere sweeps a sphere of the wheel radius
type CastSphere struct {
	Layer  Layer
	Radius float64
}

func (c CastSphere) TesterLayer() Layer { return c.Layer }

// CastCylinder sweeps the wheel cylinder, ConvexRadiusFraction rounds its edges
type CastCylinder struct {
	Layer                Layer
	ConvexRadiusFraction float64
}

func (c CastCylinder) TesterLayer() Layer { return c.Layer }

// --- Callbacks ---

// FrictionDirection names the tire axis a friction query is for
type FrictionDirection uint8

const (
	FrictionLongitudinal FrictionDirection = iota
	FrictionLateral
)

// TireImpulse is the friction budget of one wheel for one substep
type TireImpulse struct {
	Longitudinal float64
	Lateral      float64
}

// VehicleCallbacks are optional hooks run by the vehicle step listener, nil entries use engine defaults
type VehicleCallbacks struct {
	// CombinedFriction mixes tire friction with the friction of the touched body
	CombinedFriction func(wheel int, dir FrictionDirection, tireFriction float64, other Body) float64
	// TireMaxImpulse bounds the friction impulse a wheel may transfer this substep
	TireMaxImpulse func(wheel int, suspensionImpulse, longFriction, latFriction, longSlip, latSlip, dt float64) TireImpulse

	PreStep     func(v VehicleConstraint, dt float64)
	PostCollide func(v VehicleConstraint, dt float64)
	PostStep    func(v VehicleConstraint, dt float64)
}

// --- Vehicle boundary ---

// VehicleEngine exposes engine state
type VehicleEngine interface {
	CurrentRPM() float64
}

// VehicleTransmission exposes gearbox state
type VehicleTransmission interface {
	// CurrentGear is >0 forward, <0 reverse, 0 neutral
	CurrentGear() int
}

// VehicleController accepts driver input
type VehicleController interface {
	SetDriverInput(throttle, steer, brake, handbrake float64)
	Engine() VehicleEngine
	Transmission() VehicleTransmission
}

// WheelState is the simulated state of one wheel
type WheelState struct {
	Contact          bool
	SuspensionLength float64
	SteerAngle       float64
	RotationAngle    float64
	AngularVelocity  float64
}

// VehicleConstraint is an engine vehicle attached to a chassis body
type VehicleConstraint interface {
	Constraint
	Chassis() Body
	WheelCount() int
	Wheel(i int) (WheelSettings, WheelState, error)
	// WheelLocalTransform maps a wheel model whose axle is right and top is up into chassis space
	WheelLocalTransform(i int, right, up mgl64.Vec3) (Transform, error)
	Controller() VehicleController
	SetCollisionTester(t CollisionTester)
	SetCallbacks(cb VehicleCallbacks)
	// StepListener drives the vehicle, register it with World.AddStepListener
	StepListener() StepListener
	// Destroy frees engine resources, the constraint must not be used afterwards
	Destroy()
}
