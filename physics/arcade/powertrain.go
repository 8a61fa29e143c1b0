package arcade

import (
	"math"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

const (
	rpmPerRadPerSec = 60 / (2 * math.Pi)
	shiftCooldown   = 0.5

	defaultLimitedSlipRatio = 1.4
)

// Defaults applied to zero fields, matching common wheeled-vehicle tuning
var (
	defaultGearRatios    = []float64{2.66, 1.78, 1.3, 1.0, 0.74}
	defaultReverseRatios = []float64{-2.90}
	defaultTorqueCurve   = vmath.NewLinearCurve(
		vmath.CurvePoint{X: 0, Y: 0.8},
		vmath.CurvePoint{X: 0.66, Y: 1},
		vmath.CurvePoint{X: 1, Y: 0.8},
	)
)

type engineState struct {
	settings physics.EngineSettings
	rpm      float64
}

func (e *engineState) CurrentRPM() float64 { return e.rpm }

type transmissionState struct {
	settings   physics.TransmissionSettings
	gear       int
	shiftTimer float64
}

func (t *transmissionState) CurrentGear() int { return t.gear }

// ratio returns the signed gearbox ratio of the current gear
func (t *transmissionState) ratio() float64 {
	switch {
	case t.gear > 0 && t.gear <= len(t.settings.GearRatios):
		return t.settings.GearRatios[t.gear-1]
	case t.gear < 0 && -t.gear <= len(t.settings.ReverseRatios):
		return t.settings.ReverseRatios[-t.gear-1]
	}
	return 0
}

// controller turns driver input into wheel torques and steer angles
type controller struct {
	settings physics.ControllerSettings
	engine   engineState
	trans    transmissionState

	throttle, steer, brake, handbrake float64
}

func newController(s physics.ControllerSettings) *controller {
	if s.Engine.MaxRPM <= 0 {
		s.Engine.MaxRPM = 6000
	}
	if s.Engine.MinRPM <= 0 || s.Engine.MinRPM >= s.Engine.MaxRPM {
		s.Engine.MinRPM = math.Min(1000, s.Engine.MaxRPM/2)
	}
	if s.Engine.Inertia <= 0 {
		s.Engine.Inertia = 0.5
	}
	if s.Engine.NormalizedTorque.Len() == 0 {
		s.Engine.NormalizedTorque = defaultTorqueCurve.Clone()
	}
	t := s.Transmission
	if len(t.GearRatios) == 0 {
		t.GearRatios = append([]float64(nil), defaultGearRatios...)
	}
	if len(t.ReverseRatios) == 0 {
		t.ReverseRatios = append([]float64(nil), defaultReverseRatios...)
	}
	if t.ClutchStrength <= 0 {
		t.ClutchStrength = 10
	}
	if t.ShiftUpRPM <= 0 {
		t.ShiftUpRPM = 4000
	}
	if t.ShiftDownRPM <= 0 {
		t.ShiftDownRPM = 2000
	}
	s.Transmission = t
	for i := range s.Differentials {
		d := &s.Differentials[i]
		if d.DifferentialRatio <= 0 {
			d.DifferentialRatio = 3.42
		}
		if d.LeftRightSplit <= 0 || d.LeftRightSplit >= 1 {
			d.LeftRightSplit = 0.5
		}
		d.LimitedSlipRatio = slipRatio(d.LimitedSlipRatio)
	}
	s.DifferentialLimitedSlipRatio = slipRatio(s.DifferentialLimitedSlipRatio)

	c := &controller{settings: s}
	c.engine = engineState{settings: s.Engine, rpm: s.Engine.MinRPM}
	c.trans = transmissionState{settings: t, gear: 1}
	return c
}

// slipRatio defaults an unset ratio, anything below 1 is a locked differential
func slipRatio(r float64) float64 {
	switch {
	case r == 0:
		return defaultLimitedSlipRatio
	case r < 1:
		return 1
	}
	return r
}

func (c *controller) SetDriverInput(throttle, steer, brake, handbrake float64) {
	c.throttle = vmath.Clamp(throttle, -1, 1)
	c.steer = vmath.Clamp(steer, -1, 1)
	c.brake = vmath.Clamp(brake, 0, 1)
	c.handbrake = vmath.Clamp(handbrake, 0, 1)
}

func (c *controller) Engine() physics.VehicleEngine             { return &c.engine }
func (c *controller) Transmission() physics.VehicleTransmission { return &c.trans }

// update computes steer angles, engine speed, gear and per-wheel torques for one substep
func (c *controller) update(h float64, wheels []*wheel) {
	for _, w := range wheels {
		w.state.SteerAngle = c.steer * w.settings.MaxSteerAngle
		w.brakeTorque = c.brake*w.settings.MaxBrakeTorque + c.handbrake*w.settings.MaxHandBrakeTorque
		w.driveTorque = 0
	}
	if len(c.settings.Differentials) == 0 {
		return
	}

	c.selectGear(h)
	ratio := c.trans.ratio()

	// Engine speed follows the driven wheels through the clutch
	var wheelSpeed, weight float64
	for _, d := range c.settings.Differentials {
		avg := 0.5 * (wheelAt(wheels, d.LeftWheel).state.AngularVelocity + wheelAt(wheels, d.RightWheel).state.AngularVelocity)
		share := math.Max(d.EngineTorqueRatio, vmath.Epsilon)
		wheelSpeed += avg * d.DifferentialRatio * share
		weight += share
	}
	wheelSpeed /= weight
	es := c.engine.settings
	target := math.Abs(wheelSpeed*ratio) * rpmPerRadPerSec
	if c.throttle != 0 && c.brake == 0 && c.handbrake == 0 {
		// Slipping clutch lets the engine rev above the wheels
		target = math.Max(target, es.MinRPM+math.Abs(c.throttle)*0.25*(es.MaxRPM-es.MinRPM))
	}
	target = vmath.Clamp(target, es.MinRPM, es.MaxRPM)
	alpha := 1 - math.Exp(-c.trans.settings.ClutchStrength*h/es.Inertia)
	c.engine.rpm = vmath.Clamp(c.engine.rpm+(target-c.engine.rpm)*alpha, es.MinRPM, es.MaxRPM)

	if c.throttle == 0 || ratio == 0 || c.handbrake > 0 {
		return
	}
	torque := math.Abs(c.throttle) * es.MaxTorque * es.NormalizedTorque.Value(c.engine.rpm/es.MaxRPM)
	torque -= es.AngularDamping * c.engine.rpm / rpmPerRadPerSec
	if c.engine.rpm >= es.MaxRPM || torque <= 0 {
		return
	}
	torque *= ratio

	shares := c.differentialShares(wheels)
	for i, d := range c.settings.Differentials {
		axle := torque * d.DifferentialRatio * shares[i]
		left, right := wheelAt(wheels, d.LeftWheel), wheelAt(wheels, d.RightWheel)
		split := limitedSlipSplit(d.LeftRightSplit, d.LimitedSlipRatio, left.state.AngularVelocity, right.state.AngularVelocity)
		left.driveTorque += axle * split
		right.driveTorque += axle * (1 - split)
	}
}

// selectGear runs the automatic gearbox, manual mode only switches between forward and reverse
func (c *controller) selectGear(h float64) {
	t := &c.trans
	if t.shiftTimer > 0 {
		t.shiftTimer -= h
	}
	switch {
	case c.throttle < 0 && t.gear >= 0:
		t.gear = -1
		t.shiftTimer = shiftCooldown
		return
	case c.throttle > 0 && t.gear <= 0:
		t.gear = 1
		t.shiftTimer = shiftCooldown
		return
	}
	if t.settings.Mode != physics.TransmissionAuto || t.gear <= 0 || t.shiftTimer > 0 {
		return
	}
	switch {
	case c.engine.rpm > t.settings.ShiftUpRPM && t.gear < len(t.settings.GearRatios):
		t.gear++
		t.shiftTimer = shiftCooldown
	case c.engine.rpm < t.settings.ShiftDownRPM && t.gear > 1:
		t.gear--
		t.shiftTimer = shiftCooldown
	}
}

// differentialShares takes engine torque ratios as given, then moves torque away from a differential spinning too fast
// Ratios summing to other than 1 scale the total torque delivered, all-zero ratios split evenly
func (c *controller) differentialShares(wheels []*wheel) []float64 {
	diffs := c.settings.Differentials
	shares := make([]float64, len(diffs))
	var total float64
	for i, d := range diffs {
		shares[i] = math.Max(d.EngineTorqueRatio, 0)
		total += shares[i]
	}
	if total <= vmath.Epsilon {
		for i := range shares {
			shares[i] = 1 / float64(len(shares))
		}
		return shares
	}
	if len(diffs) < 2 {
		return shares
	}

	speeds := make([]float64, len(diffs))
	slowest := math.MaxFloat64
	for i, d := range diffs {
		speeds[i] = 0.5 * math.Abs(wheelAt(wheels, d.LeftWheel).state.AngularVelocity+wheelAt(wheels, d.RightWheel).state.AngularVelocity)
		slowest = math.Min(slowest, speeds[i])
	}
	limit := c.settings.DifferentialLimitedSlipRatio
	if slowest <= vmath.Epsilon {
		return shares
	}
	var moved float64
	for i := range shares {
		if speeds[i] > slowest*limit {
			cut := shares[i] * (1 - slowest*limit/speeds[i])
			shares[i] -= cut
			moved += cut
		}
	}
	var rest float64
	for i := range shares {
		if speeds[i] <= slowest*limit {
			rest += shares[i]
		}
	}
	if moved > 0 && rest > vmath.Epsilon {
		for i := range shares {
			if speeds[i] <= slowest*limit {
				shares[i] += moved * shares[i] / rest
			}
		}
	}
	return shares
}

// limitedSlipSplit returns the left share of axle torque
func limitedSlipSplit(split, ratio, left, right float64) float64 {
	l, r := math.Abs(left), math.Abs(right)
	switch {
	case l > r*ratio && l > vmath.Epsilon:
		// Left spins away, pull torque toward right
		return split * r * ratio / l
	case r > l*ratio && r > vmath.Epsilon:
		return 1 - (1-split)*l*ratio/r
	}
	return split
}

func wheelAt(wheels []*wheel, i int) *wheel {
	return wheels[i]
}
