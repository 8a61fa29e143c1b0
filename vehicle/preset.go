package vehicle

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

// Preset is the tunable description of a car, loaded from config
type Preset struct {
	Name string `mapstructure:"name"`

	Mass       float64 `mapstructure:"mass"`
	HalfLength float64 `mapstructure:"half_length"`
	HalfWidth  float64 `mapstructure:"half_width"`
	HalfHeight float64 `mapstructure:"half_height"`
	Color      uint32  `mapstructure:"color"`
	// Spawn is x, y, z, SpawnYaw in degrees around up
	Spawn    []float64 `mapstructure:"spawn"`
	SpawnYaw float64   `mapstructure:"spawn_yaw"`

	WheelRadius float64 `mapstructure:"wheel_radius"`
	WheelWidth  float64 `mapstructure:"wheel_width"`
	WheelColor  uint32  `mapstructure:"wheel_color"`
	// WheelBaseDivisor sets the axle distance as HalfLength / WheelBaseDivisor
	WheelBaseDivisor        float64 `mapstructure:"wheel_base_divisor"`
	WheelOffset             float64 `mapstructure:"wheel_offset"`
	WheelOffsetVertical     float64 `mapstructure:"wheel_offset_vertical"`
	WheelOffsetLongitudinal float64 `mapstructure:"wheel_offset_longitudinal"`

	SuspensionMinLength     float64 `mapstructure:"suspension_min_length"`
	SuspensionMaxLength     float64 `mapstructure:"suspension_max_length"`
	SuspensionPreloadLength float64 `mapstructure:"suspension_preload_length"`
	SpringMode              string  `mapstructure:"spring_mode"`
	SuspensionStiffness     float64 `mapstructure:"suspension_stiffness"`
	SuspensionDamping       float64 `mapstructure:"suspension_damping"`
	SuspensionFrequency     float64 `mapstructure:"suspension_frequency"`

	MaxSteerAngleDeg     float64 `mapstructure:"max_steer_angle_deg"`
	MaxPitchRollAngleDeg float64 `mapstructure:"max_pitch_roll_angle_deg"`
	RearHandBrakeTorque  float64 `mapstructure:"rear_handbrake_torque"`

	// Friction multipliers scale the peak point added to each tire curve
	FrontLateralFriction      float64 `mapstructure:"front_lateral_friction"`
	FrontLongitudinalFriction float64 `mapstructure:"front_longitudinal_friction"`
	RearLateralFriction       float64 `mapstructure:"rear_lateral_friction"`
	RearLongitudinalFriction  float64 `mapstructure:"rear_longitudinal_friction"`

	Transmission                 string  `mapstructure:"transmission"`
	FourWheelDrive               bool    `mapstructure:"four_wheel_drive"`
	TorqueSplitRatio             float64 `mapstructure:"torque_split_ratio"`
	DifferentialLimitedSlipRatio float64 `mapstructure:"differential_limited_slip_ratio"`
	AntiRollBar                  bool    `mapstructure:"anti_roll_bar"`

	MaxEngineTorque float64 `mapstructure:"max_engine_torque"`
	ClutchStrength  float64 `mapstructure:"clutch_strength"`
	MinRPM          float64 `mapstructure:"min_rpm"`
	MaxRPM          float64 `mapstructure:"max_rpm"`
	DamperMass      float64 `mapstructure:"damper_mass"`
	FlywheelMass    float64 `mapstructure:"flywheel_mass"`

	Tester             string  `mapstructure:"tester"`
	TesterConvexRadius float64 `mapstructure:"tester_convex_radius"`
}

// DefaultPreset is the rear-wheel drive S15 tuning
func DefaultPreset() Preset {
	return Preset{
		Name:       "s15",
		Mass:       1200,
		HalfLength: 4.445,
		HalfWidth:  1.695,
		HalfHeight: 0.1,
		Color:      0xff0000,
		Spawn:      []float64{10, 0, -30},
		SpawnYaw:   180,

		WheelRadius:             0.55,
		WheelWidth:              0.6,
		WheelColor:              0x666666,
		WheelBaseDivisor:        1.83,
		WheelOffset:             -0.2,
		WheelOffsetVertical:     -0.67,
		WheelOffsetLongitudinal: 0.4,

		SuspensionMinLength:     0.05,
		SuspensionMaxLength:     0.3,
		SuspensionPreloadLength: 0.7,
		SpringMode:              "frequency",
		SuspensionStiffness:     10,
		SuspensionDamping:       1,
		SuspensionFrequency:     1,

		MaxSteerAngleDeg:     55,
		MaxPitchRollAngleDeg: 60,
		RearHandBrakeTorque:  4000,

		FrontLateralFriction:      20,
		FrontLongitudinalFriction: 5,
		RearLateralFriction:       5,
		RearLongitudinalFriction:  20,

		Transmission:                 "auto",
		FourWheelDrive:               false,
		TorqueSplitRatio:             1.4,
		DifferentialLimitedSlipRatio: 1.3,
		AntiRollBar:                  true,

		MaxEngineTorque: 2500,
		ClutchStrength:  100,
		MinRPM:          400,
		MaxRPM:          10000,
		DamperMass:      1,
		FlywheelMass:    1,

		Tester:             "cylinder",
		TesterConvexRadius: 0.05,
	}
}

// base tire curves, the preset adds one scaled peak point to each
func baseLongitudinalCurve() vmath.LinearCurve {
	return vmath.NewLinearCurve(
		vmath.CurvePoint{X: 0, Y: 0},
		vmath.CurvePoint{X: 0.06, Y: 1.2},
		vmath.CurvePoint{X: 0.2, Y: 1.0},
	)
}

func baseLateralCurve() vmath.LinearCurve {
	return vmath.NewLinearCurve(
		vmath.CurvePoint{X: 0, Y: 0},
		vmath.CurvePoint{X: 3, Y: 1.2},
		vmath.CurvePoint{X: 20, Y: 1.0},
	)
}

func peakCurve(base vmath.LinearCurve, slip, peak, mult float64) vmath.LinearCurve {
	base.AddPoint(slip*mult, peak*mult)
	base.Sort()
	return base
}

// SpawnPosition returns the chassis start position
func (p Preset) SpawnPosition() mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < 3 && i < len(p.Spawn); i++ {
		v[i] = p.Spawn[i]
	}
	return v
}

// SpawnRotation returns the chassis start orientation
func (p Preset) SpawnRotation() mgl64.Quat {
	return mgl64.QuatRotate(vmath.DegToRad(p.SpawnYaw), vmath.AxisY)
}

// ChassisSpec describes the chassis body, a thin box with the center of mass at its floor
func (p Preset) ChassisSpec() body.Spec {
	return body.Spec{
		Name: p.Name,
		Shape: physics.OffsetCenterOfMass{
			Offset: mgl64.Vec3{0, -p.HalfHeight, 0},
			Inner:  physics.Box{HalfExtent: mgl64.Vec3{p.HalfWidth, p.HalfHeight, p.HalfLength}},
		},
		Position: p.SpawnPosition(),
		Rotation: p.SpawnRotation(),
		Motion:   physics.MotionDynamic,
		Layer:    physics.LayerMoving,
		Mass:     p.Mass,
		Color:    p.Color,
	}
}

// Config expands the preset into wheels, powertrain and anti-roll bars
func (p Preset) Config() Config {
	wheelBase := p.HalfLength / p.WheelBaseDivisor
	x := p.HalfWidth + p.WheelOffset
	y := -p.WheelOffsetVertical
	frontZ := wheelBase + p.WheelOffsetLongitudinal
	rearZ := -wheelBase + p.WheelOffsetLongitudinal/2

	spring := physics.SpringSettings{
		Mode:      physics.SpringFrequency,
		Frequency: p.SuspensionFrequency,
		Stiffness: p.SuspensionStiffness,
		Damping:   p.SuspensionDamping,
	}
	if strings.EqualFold(p.SpringMode, "stiffness") {
		spring.Mode = physics.SpringStiffness
	}

	frontLong := peakCurve(baseLongitudinalCurve(), 0.05, 1.2, p.FrontLongitudinalFriction)
	frontLat := peakCurve(baseLateralCurve(), 0.1, 1.15, p.FrontLateralFriction)
	rearLong := peakCurve(baseLongitudinalCurve(), 0.05, 1.1, p.RearLongitudinalFriction)
	rearLat := peakCurve(baseLateralCurve(), 0.1, 1.1, p.RearLateralFriction)

	wheel := func(pos mgl64.Vec3, front bool) WheelSpec {
		w := WheelSpec{
			Position:                pos,
			Radius:                  p.WheelRadius,
			Width:                   p.WheelWidth,
			SuspensionMinLength:     p.SuspensionMinLength,
			SuspensionMaxLength:     p.SuspensionMaxLength,
			SuspensionPreloadLength: p.SuspensionPreloadLength,
			Spring:                  spring,
		}
		if front {
			w.MaxSteerAngle = vmath.DegToRad(p.MaxSteerAngleDeg)
			w.LongitudinalFriction = frontLong.Clone()
			w.LateralFriction = frontLat.Clone()
		} else {
			w.MaxHandBrakeTorque = p.RearHandBrakeTorque
			w.LongitudinalFriction = rearLong.Clone()
			w.LateralFriction = rearLat.Clone()
		}
		return w
	}

	cfg := Config{
		Wheels: []WheelSpec{
			WheelFL: wheel(mgl64.Vec3{x, y, frontZ}, true),
			WheelFR: wheel(mgl64.Vec3{-x, y, frontZ}, true),
			WheelRL: wheel(mgl64.Vec3{x, y, rearZ}, false),
			WheelRR: wheel(mgl64.Vec3{-x, y, rearZ}, false),
		},
		Powertrain: Powertrain{
			Engine: Engine{
				MinRPM:         p.MinRPM,
				MaxRPM:         p.MaxRPM,
				MaxTorque:      p.MaxEngineTorque,
				AngularDamping: p.DamperMass,
				Inertia:        p.FlywheelMass,
			},
			Transmission: Transmission{
				Mode:           physics.TransmissionAuto,
				ClutchStrength: p.ClutchStrength,
			},
			Differentials: []Differential{{
				Left:              WheelRL,
				Right:             WheelRR,
				LimitedSlipRatio:  p.DifferentialLimitedSlipRatio,
				EngineTorqueRatio: 1,
			}},
		},
		Tester:            p.tester(),
		MaxPitchRollAngle: vmath.DegToRad(p.MaxPitchRollAngleDeg),
		Up:                vmath.AxisY,
		Forward:           vmath.AxisZ,
		WheelRight:        vmath.AxisY,
		WheelUp:           vmath.AxisX,
		WheelColor:        p.WheelColor,
	}
	if strings.EqualFold(p.Transmission, "manual") {
		cfg.Powertrain.Transmission.Mode = physics.TransmissionManual
	}

	if p.FourWheelDrive {
		cfg.Powertrain.Differentials[0].EngineTorqueRatio = 0.5
		cfg.Powertrain.DifferentialLimitedSlipRatio = p.TorqueSplitRatio
		cfg.Powertrain.Differentials = append(cfg.Powertrain.Differentials, Differential{
			Left:              WheelFL,
			Right:             WheelFR,
			LimitedSlipRatio:  p.DifferentialLimitedSlipRatio,
			EngineTorqueRatio: 0.5,
		})
	}

	if p.AntiRollBar {
		cfg.AntiRollBars = []AntiRollBar{
			{Left: WheelFL, Right: WheelFR},
			{Left: WheelRL, Right: WheelRR},
		}
	}
	return cfg
}

func (p Preset) tester() physics.CollisionTester {
	switch strings.ToLower(p.Tester) {
	case "ray":
		return physics.CastRay{Layer: physics.LayerMoving}
	case "sphere":
		return physics.CastSphere{Layer: physics.LayerMoving, Radius: p.WheelRadius}
	default:
		return physics.CastCylinder{Layer: physics.LayerMoving, ConvexRadiusFraction: p.TesterConvexRadius}
	}
}
