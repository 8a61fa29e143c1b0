package vehicle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

// Wheel order used by presets, left wheels have even indices
const (
	WheelFL = 0
	WheelFR = 1
	WheelRL = 2
	WheelRR = 3

	// WheelCount is the number of wheels a Config must describe
	WheelCount = 4
)

// WheelSpec is the immutable description of one wheel in chassis space
type WheelSpec struct {
	Position mgl64.Vec3
	Radius   float64
	Width    float64

	MaxSteerAngle      float64
	MaxBrakeTorque     float64
	MaxHandBrakeTorque float64

	SuspensionMinLength     float64
	SuspensionMaxLength     float64
	SuspensionPreloadLength float64
	Spring                  physics.SpringSettings

	LongitudinalFriction vmath.LinearCurve
	LateralFriction      vmath.LinearCurve
}

// Engine parameters
type Engine struct {
	MinRPM         float64
	MaxRPM         float64
	MaxTorque      float64
	AngularDamping float64
	Inertia        float64
}

// Transmission parameters, empty ratio lists use engine defaults
type Transmission struct {
	Mode           physics.TransmissionMode
	ClutchStrength float64
	GearRatios     []float64
	ReverseRatios  []float64
	ShiftUpRPM     float64
	ShiftDownRPM   float64
}

// Differential couples a left and right wheel to the engine
type Differential struct {
	Left              int
	Right             int
	LimitedSlipRatio  float64
	EngineTorqueRatio float64
	DifferentialRatio float64
}

// Powertrain groups engine, gearbox and differentials
type Powertrain struct {
	Engine        Engine
	Transmission  Transmission
	Differentials []Differential
	// DifferentialLimitedSlipRatio bounds torque transfer between differentials
	DifferentialLimitedSlipRatio float64
}

// AntiRollBar couples the suspension of two wheels
type AntiRollBar struct {
	Left      int
	Right     int
	Stiffness float64
}

// Config is everything Builder needs to attach a vehicle to a chassis
type Config struct {
	Wheels       []WheelSpec
	Powertrain   Powertrain
	AntiRollBars []AntiRollBar
	// Tester defaults to a ray cast on the moving layer
	Tester            physics.CollisionTester
	MaxPitchRollAngle float64

	Up      mgl64.Vec3
	Forward mgl64.Vec3

	// WheelRight and WheelUp are the wheel model axes handed to WheelLocalTransform
	WheelRight mgl64.Vec3
	WheelUp    mgl64.Vec3

	// Callbacks with nil hooks get the default friction mixing and impulse budget
	Callbacks physics.VehicleCallbacks

	WheelColor uint32
}

// Validate checks the four-wheel layout and every wheel reference
func (c Config) Validate() error {
	n := len(c.Wheels)
	if n != WheelCount {
		return fmt.Errorf("%w: want %d wheels, have %d", physics.ErrInvalidWheelIndex, WheelCount, n)
	}
	for i, d := range c.Powertrain.Differentials {
		if !inRange(d.Left, n) || !inRange(d.Right, n) {
			return fmt.Errorf("%w: differential %d uses wheels %d/%d, have %d", physics.ErrInvalidWheelIndex, i, d.Left, d.Right, n)
		}
	}
	for i, bar := range c.AntiRollBars {
		if !inRange(bar.Left, n) || !inRange(bar.Right, n) {
			return fmt.Errorf("%w: anti-roll bar %d uses wheels %d/%d, have %d", physics.ErrInvalidWheelIndex, i, bar.Left, bar.Right, n)
		}
	}
	return nil
}

// Lint reports questionable but accepted settings
func (c Config) Lint() []string {
	var warnings []string
	if len(c.Powertrain.Differentials) > 0 {
		sum := 0.0
		for _, d := range c.Powertrain.Differentials {
			sum += d.EngineTorqueRatio
		}
		if math.Abs(sum-1) > 1e-6 {
			warnings = append(warnings, fmt.Sprintf("differential torque shares sum to %.3f", sum))
		}
	}
	for i := WheelRL; i < len(c.Wheels); i++ {
		if c.Wheels[i].MaxSteerAngle != 0 {
			warnings = append(warnings, fmt.Sprintf("rear wheel %d steers up to %.1f deg", i, vmath.RadToDeg(c.Wheels[i].MaxSteerAngle)))
		}
	}
	return warnings
}

// Settings converts the config to engine settings
func (c Config) Settings() physics.VehicleSettings {
	up := c.Up
	if up == (mgl64.Vec3{}) {
		up = vmath.AxisY
	}
	fwd := c.Forward
	if fwd == (mgl64.Vec3{}) {
		fwd = vmath.AxisZ
	}

	s := physics.VehicleSettings{
		Up:                up,
		Forward:           fwd,
		MaxPitchRollAngle: c.MaxPitchRollAngle,
		Wheels:            make([]physics.WheelSettings, len(c.Wheels)),
	}
	for i, w := range c.Wheels {
		s.Wheels[i] = physics.WheelSettings{
			Position:                w.Position,
			Radius:                  w.Radius,
			Width:                   w.Width,
			MaxSteerAngle:           w.MaxSteerAngle,
			MaxBrakeTorque:          w.MaxBrakeTorque,
			MaxHandBrakeTorque:      w.MaxHandBrakeTorque,
			SuspensionMinLength:     w.SuspensionMinLength,
			SuspensionMaxLength:     w.SuspensionMaxLength,
			SuspensionPreloadLength: w.SuspensionPreloadLength,
			Spring:                  w.Spring,
			LongitudinalFriction:    w.LongitudinalFriction.Clone(),
			LateralFriction:         w.LateralFriction.Clone(),
		}
	}
	for _, bar := range c.AntiRollBars {
		s.AntiRollBars = append(s.AntiRollBars, physics.AntiRollBar{
			LeftWheel:  bar.Left,
			RightWheel: bar.Right,
			Stiffness:  bar.Stiffness,
		})
	}

	pt := c.Powertrain
	s.Controller = physics.ControllerSettings{
		Engine: physics.EngineSettings{
			MinRPM:         pt.Engine.MinRPM,
			MaxRPM:         pt.Engine.MaxRPM,
			MaxTorque:      pt.Engine.MaxTorque,
			AngularDamping: pt.Engine.AngularDamping,
			Inertia:        pt.Engine.Inertia,
		},
		Transmission: physics.TransmissionSettings{
			Mode:           pt.Transmission.Mode,
			GearRatios:     append([]float64(nil), pt.Transmission.GearRatios...),
			ReverseRatios:  append([]float64(nil), pt.Transmission.ReverseRatios...),
			ClutchStrength: pt.Transmission.ClutchStrength,
			ShiftUpRPM:     pt.Transmission.ShiftUpRPM,
			ShiftDownRPM:   pt.Transmission.ShiftDownRPM,
		},
		DifferentialLimitedSlipRatio: pt.DifferentialLimitedSlipRatio,
	}
	for _, d := range pt.Differentials {
		s.Controller.Differentials = append(s.Controller.Differentials, physics.DifferentialSettings{
			LeftWheel:         d.Left,
			RightWheel:        d.Right,
			DifferentialRatio: d.DifferentialRatio,
			LimitedSlipRatio:  d.LimitedSlipRatio,
			EngineTorqueRatio: d.EngineTorqueRatio,
		})
	}
	return s
}

// IsLeft reports whether wheel i sits on the left side
func IsLeft(i int) bool { return i%2 == 0 }

func inRange(i, n int) bool { return i >= 0 && i < n }
