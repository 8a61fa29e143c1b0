package arcade

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

// body is the engine-side rigid body
// Position is the shape origin, the mass center sits at Position + Rotation*shape.com
type body struct {
	id     physics.BodyID
	shape  *shape
	motion physics.MotionKind
	layer  physics.Layer

	pos    mgl64.Vec3
	rot    mgl64.Quat
	linVel mgl64.Vec3
	angVel mgl64.Vec3

	mass       float64
	invMass    float64
	invInertia mgl64.Vec3 // diagonal, body space

	friction    float64
	restitution float64

	added      bool
	active     bool
	sleepTimer float64

	// Accumulated per substep, cleared after integration
	force  mgl64.Vec3
	torque mgl64.Vec3
}

func (b *body) ID() physics.BodyID          { return b.id }
func (b *body) Shape() physics.Shape        { return b.shape }
func (b *body) Motion() physics.MotionKind  { return b.motion }
func (b *body) Type() physics.BodyType      { return physics.BodyRigid }
func (b *body) Layer() physics.Layer        { return b.layer }
func (b *body) Position() mgl64.Vec3        { return b.pos }
func (b *body) Rotation() mgl64.Quat        { return b.rot }
func (b *body) LinearVelocity() mgl64.Vec3  { return b.linVel }
func (b *body) AngularVelocity() mgl64.Vec3 { return b.angVel }
func (b *body) Mass() float64               { return b.mass }
func (b *body) Friction() float64           { return b.friction }
func (b *body) IsActive() bool              { return b.active }

func (b *body) dynamic() bool { return b.motion == physics.MotionDynamic }

func (b *body) transform() physics.Transform {
	return physics.Transform{Position: b.pos, Rotation: b.rot}
}

func (b *body) worldBounds() physics.AABB {
	bb := b.shape.bounds
	if b.shape.radius > 0 {
		return bb.Transformed(physics.Transform{Position: b.pos, Rotation: mgl64.QuatIdent()})
	}
	return bb.Transformed(b.transform())
}

// centerOfMass returns the world mass center
func (b *body) centerOfMass() mgl64.Vec3 {
	return b.pos.Add(b.rot.Rotate(b.shape.com))
}

// setMass assigns mass and a box-approximated inertia from the shape bounds
func (b *body) setMass(m float64) {
	if m <= 0 || !b.dynamic() {
		b.mass, b.invMass, b.invInertia = 0, 0, mgl64.Vec3{}
		return
	}
	b.mass = m
	b.invMass = 1 / m

	e := b.shape.bounds.Max.Sub(b.shape.bounds.Min)
	ix := m / 12 * (e[1]*e[1] + e[2]*e[2])
	iy := m / 12 * (e[0]*e[0] + e[2]*e[2])
	iz := m / 12 * (e[0]*e[0] + e[1]*e[1])
	b.invInertia = mgl64.Vec3{inv(ix), inv(iy), inv(iz)}
}

func inv(v float64) float64 {
	if v <= vmath.Epsilon {
		return 0
	}
	return 1 / v
}

// applyInvInertia maps a world torque/impulse to angular velocity change
func (b *body) applyInvInertia(v mgl64.Vec3) mgl64.Vec3 {
	local := b.rot.Conjugate().Rotate(v)
	return b.rot.Rotate(vmath.MulElem(local, b.invInertia))
}

// pointVelocity is the world velocity of world point p attached to the body
func (b *body) pointVelocity(p mgl64.Vec3) mgl64.Vec3 {
	r := p.Sub(b.centerOfMass())
	return b.linVel.Add(b.angVel.Cross(r))
}

// applyImpulse applies impulse j at world point p
func (b *body) applyImpulse(j, p mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.linVel = b.linVel.Add(j.Mul(b.invMass))
	r := p.Sub(b.centerOfMass())
	b.angVel = b.angVel.Add(b.applyInvInertia(r.Cross(j)))
}

// applyAngularImpulse changes angular velocity only
func (b *body) applyAngularImpulse(l mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.angVel = b.angVel.Add(b.applyInvInertia(l))
}

// effectiveMass is the inverse of the impulse response of point p along n
func (b *body) invEffectiveMass(p, n mgl64.Vec3) float64 {
	if b.invMass == 0 {
		return 0
	}
	r := p.Sub(b.centerOfMass())
	rn := r.Cross(n)
	return b.invMass + b.applyInvInertia(rn).Cross(r).Dot(n)
}

func (b *body) wake() {
	if b.dynamic() && b.added {
		b.active = true
		b.sleepTimer = 0
	}
}
