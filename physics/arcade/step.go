package arcade

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

const (
	// Work below this many bodies stays on the calling goroutine
	parallelThreshold = 64

	penetrationSlop = 0.01
	baumgarte       = 0.2
	maxBiasSpeed    = 4.0
	wakeImpulse     = 1e-3
)

// workerPool splits index ranges across a bounded errgroup
type workerPool struct {
	workers int
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	return &workerPool{workers: workers}
}

// forEach runs fn(i) for i in [0, n), chunks never share an index
func (p *workerPool) forEach(n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	if p.workers == 1 || n < parallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return nil
	}

	chunk := (n + p.workers - 1) / p.workers
	var g errgroup.Group
	g.SetLimit(p.workers)
	for start := 0; start < n; start += chunk {
		lo, hi := start, min(start+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

type contact struct {
	a, b   *body
	point  mgl64.Vec3
	normal mgl64.Vec3 // from b toward a
	depth  float64
	bias   float64
	jn     float64
}

// Step advances the world by dt in equal substeps
func (w *World) Step(dt float64, substeps int) error {
	if w.closed {
		return physics.ErrNotInitialized
	}
	if dt <= 0 {
		return nil
	}
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float64(substeps)
	for i := 0; i < substeps; i++ {
		if err := w.substep(h); err != nil {
			return err
		}
		w.steps++
	}
	return nil
}

func (w *World) substep(h float64) error {
	for _, e := range w.listeners {
		e.listener.OnStep(h)
	}

	active := w.activeBodies()

	g := w.settings.Gravity
	linDamp := 1 / (1 + h*w.settings.LinearDamping)
	angDamp := 1 / (1 + h*w.settings.AngularDamping)
	err := w.pool.forEach(len(active), func(i int) {
		b := active[i]
		acc := g.Add(b.force.Mul(b.invMass))
		b.linVel = b.linVel.Add(acc.Mul(h)).Mul(linDamp)
		b.angVel = b.angVel.Add(b.applyInvInertia(b.torque).Mul(h)).Mul(angDamp)
		b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}
	})
	if err != nil {
		return err
	}

	contacts := w.findContacts(active, h)
	for it := 0; it < w.settings.SolverIterations; it++ {
		for i := range contacts {
			w.solveContact(&contacts[i])
		}
	}

	err = w.pool.forEach(len(active), func(i int) {
		b := active[i]
		com := b.centerOfMass().Add(b.linVel.Mul(h))
		b.rot = vmath.IntegrateRotation(b.rot, b.angVel, h)
		b.pos = com.Sub(b.rot.Rotate(b.shape.com))
	})
	if err != nil {
		return err
	}

	w.updateSleep(active, h)
	return nil
}

func (w *World) activeBodies() []*body {
	out := make([]*body, 0, len(w.order))
	for _, b := range w.order {
		if b.added && b.active && b.dynamic() {
			out = append(out, b)
		}
	}
	return out
}

// findContacts pairs every active body with every added body it may touch
func (w *World) findContacts(active []*body, h float64) []contact {
	bounds := make(map[*body]physics.AABB, len(w.order))
	for _, b := range w.order {
		if b.added {
			bounds[b] = b.worldBounds()
		}
	}

	var contacts []contact
	for _, a := range active {
		ab := bounds[a]
		for _, b := range w.order {
			if a == b || !b.added {
				continue
			}
			// Active pairs are visited once, from the lower ID
			if b.active && b.dynamic() && b.id < a.id {
				continue
			}
			if !w.filter.ShouldCollide(a.layer, b.layer) {
				continue
			}
			if !ab.Overlaps(bounds[b]) {
				continue
			}
			contacts = appendContacts(contacts, a, b)
		}
	}

	for i := range contacts {
		c := &contacts[i]
		if c.depth > penetrationSlop {
			c.bias = math.Min(baumgarte/h*(c.depth-penetrationSlop), maxBiasSpeed)
		}
	}
	return contacts
}

// appendContacts tests probes of a inside b and probes of b inside a
func appendContacts(out []contact, a, b *body) []contact {
	ta, tb := a.transform(), b.transform()

	for _, p := range a.shape.probes {
		wp := ta.Apply(p)
		lp := tb.Rotation.Conjugate().Rotate(wp.Sub(tb.Position))
		if depth, n, ok := b.shape.inside(lp, a.shape.radius); ok {
			nw := tb.Rotation.Rotate(n)
			out = append(out, contact{a: a, b: b, point: wp.Sub(nw.Mul(a.shape.radius)), normal: nw, depth: depth})
		}
	}
	for _, p := range b.shape.probes {
		wp := tb.Apply(p)
		lp := ta.Rotation.Conjugate().Rotate(wp.Sub(ta.Position))
		if depth, n, ok := a.shape.inside(lp, b.shape.radius); ok {
			nw := ta.Rotation.Rotate(n)
			out = append(out, contact{a: a, b: b, point: wp.Add(nw.Mul(b.shape.radius)), normal: nw.Mul(-1), depth: depth})
		}
	}
	return out
}

// solveContact applies one sequential-impulse pass on c
func (w *World) solveContact(c *contact) {
	a, b := c.a, c.b
	n := c.normal

	k := a.invEffectiveMass(c.point, n) + b.invEffectiveMass(c.point, n)
	if k <= vmath.Epsilon {
		return
	}

	vrel := a.pointVelocity(c.point).Sub(b.pointVelocity(c.point))
	vn := vrel.Dot(n)
	target := c.bias
	if e := math.Max(a.restitution, b.restitution); e > 0 && vn < -1 {
		target = math.Max(target, -e*vn)
	}

	dj := (target - vn) / k
	jn := math.Max(c.jn+dj, 0)
	dj = jn - c.jn
	c.jn = jn
	if dj != 0 {
		imp := n.Mul(dj)
		a.applyImpulse(imp, c.point)
		b.applyImpulse(imp.Mul(-1), c.point)
		if dj > wakeImpulse && b.dynamic() && !b.active {
			b.wake()
		}
	}

	// Coulomb friction against the accumulated normal impulse
	vrel = a.pointVelocity(c.point).Sub(b.pointVelocity(c.point))
	vt := vrel.Sub(n.Mul(vrel.Dot(n)))
	speed := vt.Len()
	if speed <= vmath.Epsilon {
		return
	}
	t := vt.Mul(1 / speed)
	kt := a.invEffectiveMass(c.point, t) + b.invEffectiveMass(c.point, t)
	if kt <= vmath.Epsilon {
		return
	}
	mu := math.Sqrt(a.friction * b.friction)
	jt := math.Min(speed/kt, mu*c.jn)
	imp := t.Mul(-jt)
	a.applyImpulse(imp, c.point)
	b.applyImpulse(imp.Mul(-1), c.point)
}

func (w *World) updateSleep(active []*body, h float64) {
	limit := w.settings.SleepSpeed
	for _, b := range active {
		if b.linVel.Len() < limit && b.angVel.Len() < limit {
			b.sleepTimer += h
			if b.sleepTimer >= w.settings.SleepTime {
				b.active = false
				b.linVel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
			}
			continue
		}
		b.sleepTimer = 0
	}
}
