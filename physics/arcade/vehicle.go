package arcade

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

const (
	defaultWheelInertia   = 0.9
	defaultMaxBrakeTorque = 1500
	defaultAntiRollStiff  = 1000
	wheelAngularDamping   = 0.2
	minSlipSpeed          = 1.0
)

var _ physics.World = (*World)(nil)
var _ physics.VehicleConstraint = (*vehicle)(nil)

type wheel struct {
	settings physics.WheelSettings
	state    physics.WheelState

	bottomed      bool
	contactPoint  mgl64.Vec3
	contactNormal mgl64.Vec3
	contactBody   *body

	suspensionImpulse float64
	driveTorque       float64
	brakeTorque       float64
}

// vehicle is a raycast wheeled vehicle driven by its step listener
type vehicle struct {
	id        uint32
	world     *World
	chassis   *body
	up        mgl64.Vec3
	forward   mgl64.Vec3
	maxTilt   float64
	wheels    []*wheel
	antiRoll  []physics.AntiRollBar
	ctrl      *controller
	tester    physics.CollisionTester
	callbacks physics.VehicleCallbacks
	destroyed bool
}

// CreateVehicle builds a vehicle on a dynamic chassis, it is inert until added as constraint and listener
func (w *World) CreateVehicle(chassis physics.Body, s physics.VehicleSettings) (physics.VehicleConstraint, error) {
	if w.closed {
		return nil, physics.ErrNotInitialized
	}
	cb, ok := chassis.(*body)
	if !ok || w.bodies[cb.id] != cb {
		return nil, fmt.Errorf("%w: chassis not owned by this world", physics.ErrBodyRegistration)
	}
	if !cb.dynamic() {
		return nil, fmt.Errorf("%w: chassis body %d is not dynamic", physics.ErrBodyRegistration, cb.id)
	}
	if len(s.Wheels) == 0 {
		return nil, fmt.Errorf("%w: vehicle has no wheels", physics.ErrInvalidWheelIndex)
	}
	n := len(s.Wheels)
	for i, d := range s.Controller.Differentials {
		if !validWheel(d.LeftWheel, n) || !validWheel(d.RightWheel, n) {
			return nil, fmt.Errorf("%w: differential %d references wheels %d/%d of %d", physics.ErrInvalidWheelIndex, i, d.LeftWheel, d.RightWheel, n)
		}
	}
	for i, bar := range s.AntiRollBars {
		if !validWheel(bar.LeftWheel, n) || !validWheel(bar.RightWheel, n) {
			return nil, fmt.Errorf("%w: anti-roll bar %d references wheels %d/%d of %d", physics.ErrInvalidWheelIndex, i, bar.LeftWheel, bar.RightWheel, n)
		}
	}

	up := vmath.SafeNormalize(s.Up, vmath.AxisY)
	fwd := vmath.SafeNormalize(s.Forward, vmath.AxisZ)
	maxTilt := s.MaxPitchRollAngle
	if maxTilt <= 0 {
		maxTilt = math.Pi
	}

	w.nextConstraintID++
	v := &vehicle{
		id:       w.nextConstraintID,
		world:    w,
		chassis:  cb,
		up:       up,
		forward:  fwd,
		maxTilt:  maxTilt,
		antiRoll: append([]physics.AntiRollBar(nil), s.AntiRollBars...),
		ctrl:     newController(s.Controller),
		tester:   physics.CastRay{Layer: physics.LayerMoving},
	}
	for i := range v.antiRoll {
		if v.antiRoll[i].Stiffness <= 0 {
			v.antiRoll[i].Stiffness = defaultAntiRollStiff
		}
	}
	for _, ws := range s.Wheels {
		if ws.Inertia <= 0 {
			ws.Inertia = defaultWheelInertia
		}
		if ws.MaxBrakeTorque <= 0 {
			ws.MaxBrakeTorque = defaultMaxBrakeTorque
		}
		ws.LongitudinalFriction = ws.LongitudinalFriction.Clone()
		ws.LateralFriction = ws.LateralFriction.Clone()
		v.wheels = append(v.wheels, &wheel{
			settings: ws,
			state:    physics.WheelState{SuspensionLength: ws.SuspensionMaxLength},
		})
	}
	return v, nil
}

func validWheel(i, n int) bool { return i >= 0 && i < n }

func (v *vehicle) ConstraintID() uint32                     { return v.id }
func (v *vehicle) Chassis() physics.Body                    { return v.chassis }
func (v *vehicle) WheelCount() int                          { return len(v.wheels) }
func (v *vehicle) Controller() physics.VehicleController    { return v.ctrl }
func (v *vehicle) SetCallbacks(cb physics.VehicleCallbacks) { v.callbacks = cb }
func (v *vehicle) StepListener() physics.StepListener       { return vehicleListener{v} }
func (v *vehicle) Destroy()                                 { v.destroyed = true }

func (v *vehicle) SetCollisionTester(t physics.CollisionTester) {
	if t != nil {
		v.tester = t
	}
}

func (v *vehicle) Wheel(i int) (physics.WheelSettings, physics.WheelState, error) {
	if !validWheel(i, len(v.wheels)) {
		return physics.WheelSettings{}, physics.WheelState{}, fmt.Errorf("%w: %d of %d", physics.ErrInvalidWheelIndex, i, len(v.wheels))
	}
	return v.wheels[i].settings, v.wheels[i].state, nil
}

// WheelLocalTransform returns the pose of wheel i in chassis space for a model with the given axle and up axes
func (v *vehicle) WheelLocalTransform(i int, right, up mgl64.Vec3) (physics.Transform, error) {
	if !validWheel(i, len(v.wheels)) {
		return physics.Transform{}, fmt.Errorf("%w: %d of %d", physics.ErrInvalidWheelIndex, i, len(v.wheels))
	}
	wh := v.wheels[i]

	vRight := v.forward.Cross(v.up)
	model := vmath.QuatFromBasis(right, up, right.Cross(up))
	chassis := vmath.QuatFromBasis(vRight, v.up, vRight.Cross(v.up))
	steer := mgl64.QuatRotate(-wh.state.SteerAngle, v.up)
	spin := mgl64.QuatRotate(wh.state.RotationAngle, v.up.Cross(v.forward))

	return physics.Transform{
		Position: wh.settings.Position.Sub(v.up.Mul(wh.state.SuspensionLength)),
		Rotation: steer.Mul(spin).Mul(chassis).Mul(model.Conjugate()).Normalize(),
	}, nil
}

type vehicleListener struct{ v *vehicle }

func (l vehicleListener) OnStep(dt float64) { l.v.step(dt) }

// step runs one substep: probe ground, suspension, powertrain, tire friction
func (v *vehicle) step(h float64) {
	c := v.chassis
	if v.destroyed || !c.added || !c.active {
		return
	}
	if v.callbacks.PreStep != nil {
		v.callbacks.PreStep(v, h)
	}

	tr := c.transform()
	up := tr.Rotation.Rotate(v.up)
	fwd := tr.Rotation.Rotate(v.forward)
	right := fwd.Cross(up)

	layer := v.tester.TesterLayer()
	for _, wh := range v.wheels {
		v.probe(wh, tr, up, layer)
	}
	if v.callbacks.PostCollide != nil {
		v.callbacks.PostCollide(v, h)
	}

	v.suspension(h, tr, up)
	v.ctrl.update(h, v.wheels)
	v.tires(h, up, fwd, right)
	v.limitTilt(up)

	if v.callbacks.PostStep != nil {
		v.callbacks.PostStep(v, h)
	}
}

func (v *vehicle) probe(wh *wheel, tr physics.Transform, up mgl64.Vec3, layer physics.Layer) {
	s := wh.settings
	mount := tr.Apply(s.Position)
	hit, ok := v.world.castRay(mount, up.Mul(-1), s.SuspensionMaxLength+s.Radius, layer, v.chassis)
	if !ok {
		wh.state.Contact = false
		wh.state.SuspensionLength = s.SuspensionMaxLength
		wh.contactBody = nil
		wh.bottomed = false
		return
	}
	length := hit.distance - s.Radius
	wh.state.Contact = true
	wh.state.SuspensionLength = vmath.Clamp(length, s.SuspensionMinLength, s.SuspensionMaxLength)
	wh.bottomed = length < s.SuspensionMinLength
	wh.contactPoint = hit.point
	wh.contactNormal = hit.normal
	wh.contactBody = hit.body
}

func (v *vehicle) suspension(h float64, tr physics.Transform, up mgl64.Vec3) {
	c := v.chassis
	quarter := c.mass / float64(len(v.wheels))

	extra := make([]float64, len(v.wheels))
	for _, bar := range v.antiRoll {
		l, r := v.wheels[bar.LeftWheel], v.wheels[bar.RightWheel]
		if !l.state.Contact && !r.state.Contact {
			continue
		}
		f := (r.state.SuspensionLength - l.state.SuspensionLength) * bar.Stiffness
		extra[bar.LeftWheel] += f
		extra[bar.RightWheel] -= f
	}

	for i, wh := range v.wheels {
		wh.suspensionImpulse = 0
		if !wh.state.Contact {
			continue
		}
		s := wh.settings
		n := wh.contactNormal
		p := wh.contactPoint
		relVel := c.pointVelocity(tr.Apply(s.Position))
		if o := wh.contactBody; o != nil && o.dynamic() {
			relVel = relVel.Sub(o.pointVelocity(p))
		}
		// Positive while the spring is being compressed
		rate := -relVel.Dot(up)

		k, damp := springCoefficients(s.Spring, quarter)
		x := s.SuspensionMaxLength + s.SuspensionPreloadLength - wh.state.SuspensionLength
		force := math.Max(k*x+damp*rate+extra[i], 0)
		impulse := force * h

		if wh.bottomed && rate > 0 {
			// Hard stop, cancel the closing speed
			if inv := c.invEffectiveMass(p, n); inv > vmath.Epsilon {
				impulse += rate / inv
			}
		}
		wh.suspensionImpulse = impulse

		j := n.Mul(impulse)
		c.applyImpulse(j, p)
		if o := wh.contactBody; o != nil && o.dynamic() {
			o.applyImpulse(j.Mul(-1), p)
			o.wake()
		}
	}
}

// springCoefficients returns stiffness and damping for a sprung mass m
func springCoefficients(s physics.SpringSettings, m float64) (float64, float64) {
	if s.Mode == physics.SpringStiffness || s.Frequency <= 0 {
		return s.Stiffness, s.Damping
	}
	omega := 2 * math.Pi * s.Frequency
	return m * omega * omega, 2 * m * s.Damping * omega
}

func (v *vehicle) tires(h float64, up, fwd, right mgl64.Vec3) {
	c := v.chassis
	for i, wh := range v.wheels {
		s := wh.settings
		steer := mgl64.QuatRotate(-wh.state.SteerAngle, up)
		wFwd := steer.Rotate(fwd)
		wRight := steer.Rotate(right)

		w := wh.state.AngularVelocity + wh.driveTorque/s.Inertia*h
		if wh.brakeTorque > 0 {
			w = vmath.MoveTowards(w, 0, wh.brakeTorque/s.Inertia*h)
		}

		if !wh.state.Contact {
			w *= 1 / (1 + wheelAngularDamping*h)
			wh.state.AngularVelocity = w
			wh.state.RotationAngle = math.Mod(wh.state.RotationAngle+w*h, 2*math.Pi)
			continue
		}

		n := wh.contactNormal
		gFwd := vmath.SafeNormalize(wFwd.Sub(n.Mul(wFwd.Dot(n))), wFwd)
		gRight := vmath.SafeNormalize(wRight.Sub(n.Mul(wRight.Dot(n))), wRight)
		p := wh.contactPoint
		other := wh.contactBody

		vel := c.pointVelocity(p)
		if other != nil && other.dynamic() {
			vel = vel.Sub(other.pointVelocity(p))
		}
		vLong := vel.Dot(gFwd)
		vLat := vel.Dot(gRight)

		longSlip := math.Abs(w*s.Radius-vLong) / math.Max(math.Abs(vLong), minSlipSpeed)
		latSlip := vmath.RadToDeg(math.Abs(math.Atan2(vLat, math.Max(math.Abs(vLong), minSlipSpeed))))
		longMu := v.combinedFriction(i, physics.FrictionLongitudinal, s.LongitudinalFriction.Value(longSlip), other)
		latMu := v.combinedFriction(i, physics.FrictionLateral, s.LateralFriction.Value(latSlip), other)
		budget := v.tireMaxImpulse(i, wh.suspensionImpulse, longMu, latMu, longSlip, latSlip, h)

		// Longitudinal: bring the contact patch speed to the wheel surface speed
		kLong := c.invEffectiveMass(p, gFwd) + s.Radius*s.Radius/s.Inertia
		if other != nil {
			kLong += other.invEffectiveMass(p, gFwd)
		}
		jLong := 0.0
		if kLong > vmath.Epsilon {
			jLong = vmath.Clamp((w*s.Radius-vLong)/kLong, -budget.Longitudinal, budget.Longitudinal)
		}
		w -= jLong * s.Radius / s.Inertia

		// Lateral: cancel sideways sliding
		kLat := c.invEffectiveMass(p, gRight)
		if other != nil {
			kLat += other.invEffectiveMass(p, gRight)
		}
		jLat := 0.0
		if kLat > vmath.Epsilon {
			jLat = vmath.Clamp(-vLat/kLat, -budget.Lateral, budget.Lateral)
		}

		j := gFwd.Mul(jLong).Add(gRight.Mul(jLat))
		c.applyImpulse(j, p)
		if other != nil && other.dynamic() {
			other.applyImpulse(j.Mul(-1), p)
		}

		wh.state.AngularVelocity = w
		wh.state.RotationAngle = math.Mod(wh.state.RotationAngle+w*h, 2*math.Pi)
	}
}

func (v *vehicle) combinedFriction(i int, dir physics.FrictionDirection, tire float64, other *body) float64 {
	if v.callbacks.CombinedFriction != nil {
		var ob physics.Body
		if other != nil {
			ob = other
		}
		return v.callbacks.CombinedFriction(i, dir, tire, ob)
	}
	surface := v.world.settings.DefaultFriction
	if other != nil {
		surface = other.friction
	}
	return math.Sqrt(tire * surface)
}

func (v *vehicle) tireMaxImpulse(i int, suspension, longMu, latMu, longSlip, latSlip, h float64) physics.TireImpulse {
	if v.callbacks.TireMaxImpulse != nil {
		return v.callbacks.TireMaxImpulse(i, suspension, longMu, latMu, longSlip, latSlip, h)
	}
	return physics.TireImpulse{Longitudinal: longMu * suspension, Lateral: latMu * suspension}
}

// limitTilt stops angular motion that would tip the chassis past maxTilt
func (v *vehicle) limitTilt(up mgl64.Vec3) {
	worldUp := vmath.SafeNormalize(v.world.settings.Gravity.Mul(-1), vmath.AxisY)
	if up.Dot(worldUp) >= math.Cos(v.maxTilt) {
		return
	}
	axis := up.Cross(worldUp)
	if axis.Len() <= vmath.Epsilon {
		return
	}
	axis = axis.Normalize()
	c := v.chassis
	if wa := c.angVel.Dot(axis); wa < 0 {
		c.angVel = c.angVel.Sub(axis.Mul(wa))
	}
}
