package arcade

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

// hullBruteForceLimit caps the point count for exact face extraction, larger hulls collide as their bounds
const hullBruteForceLimit = 48

// plane is n·x <= d for points inside
type plane struct {
	n mgl64.Vec3
	d float64
}

// shape is the engine-side collision shape
// Every shape is treated as a convex set of planes plus a set of probe points
type shape struct {
	desc   physics.ShapeDescriptor
	bounds physics.AABB
	com    mgl64.Vec3
	volume float64

	planes []plane
	// probes are points tested against other shapes, radius > 0 for spheres
	probes []mgl64.Vec3
	radius float64

	released bool
}

func (s *shape) Descriptor() physics.ShapeDescriptor { return s.desc }
func (s *shape) LocalBounds() physics.AABB           { return s.bounds }
func (s *shape) CenterOfMass() mgl64.Vec3             { return s.com }

// newShape builds collision data for a validated descriptor
func newShape(desc physics.ShapeDescriptor) *shape {
	s := &shape{desc: desc, bounds: desc.LocalBounds()}

	switch d := desc.(type) {
	case physics.Box:
		s.planes = boxPlanes(s.bounds)
		c := s.bounds.Corners()
		s.probes = c[:]
		e := d.HalfExtent
		s.volume = 8 * e[0] * e[1] * e[2]

	case physics.Sphere:
		s.probes = []mgl64.Vec3{{}}
		s.radius = d.Radius
		s.planes = boxPlanes(s.bounds)
		s.volume = 4.0 / 3.0 * math.Pi * d.Radius * d.Radius * d.Radius

	case physics.ConvexHull:
		if len(d.Points) <= hullBruteForceLimit {
			s.planes = hullPlanes(d.Points)
		}
		if len(s.planes) == 0 {
			s.planes = boxPlanes(s.bounds)
		}
		s.probes = append([]mgl64.Vec3(nil), d.Points...)
		s.com = centroid(d.Points)
		s.volume = boundsVolume(s.bounds)

	case physics.Mesh:
		s.planes = boxPlanes(s.bounds)
		c := s.bounds.Corners()
		s.probes = c[:]
		s.com = s.bounds.Center()
		s.volume = boundsVolume(s.bounds)

	case physics.OffsetCenterOfMass:
		inner := newShape(d.Inner)
		s.planes = inner.planes
		s.probes = inner.probes
		s.radius = inner.radius
		s.volume = inner.volume
		s.com = inner.com.Add(d.Offset)
	}
	return s
}

// inside returns the shallowest plane penetration of local point p (grown by r), ok=false if outside
func (s *shape) inside(p mgl64.Vec3, r float64) (depth float64, normal mgl64.Vec3, ok bool) {
	depth = math.MaxFloat64
	for _, pl := range s.planes {
		dist := pl.d + r - pl.n.Dot(p)
		if dist <= 0 {
			return 0, mgl64.Vec3{}, false
		}
		if dist < depth {
			depth = dist
			normal = pl.n
		}
	}
	if len(s.planes) == 0 {
		return 0, mgl64.Vec3{}, false
	}
	return depth, normal, true
}

// raycast intersects a local-space ray with the plane set, returns entry distance
func (s *shape) raycast(origin, dir mgl64.Vec3, maxDist float64) (float64, mgl64.Vec3, bool) {
	tEnter, tExit := 0.0, maxDist
	var enterNormal mgl64.Vec3
	startsInside := true
	for _, pl := range s.planes {
		denom := pl.n.Dot(dir)
		dist := pl.d - pl.n.Dot(origin)
		if math.Abs(denom) < vmath.Epsilon {
			if dist < 0 {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t := dist / denom
		if denom < 0 {
			// Entering through this plane
			if dist < 0 {
				startsInside = false
			}
			if t > tEnter {
				tEnter = t
				enterNormal = pl.n
			}
		} else {
			if dist < 0 {
				return 0, mgl64.Vec3{}, false
			}
			if t < tExit {
				tExit = t
			}
		}
		if tEnter > tExit {
			return 0, mgl64.Vec3{}, false
		}
	}
	if startsInside {
		return 0, dir.Mul(-1), true
	}
	return tEnter, enterNormal, true
}

func boxPlanes(b physics.AABB) []plane {
	return []plane{
		{n: mgl64.Vec3{1, 0, 0}, d: b.Max[0]},
		{n: mgl64.Vec3{-1, 0, 0}, d: -b.Min[0]},
		{n: mgl64.Vec3{0, 1, 0}, d: b.Max[1]},
		{n: mgl64.Vec3{0, -1, 0}, d: -b.Min[1]},
		{n: mgl64.Vec3{0, 0, 1}, d: b.Max[2]},
		{n: mgl64.Vec3{0, 0, -1}, d: -b.Min[2]},
	}
}

// hullPlanes finds supporting face planes by testing every point triple
func hullPlanes(pts []mgl64.Vec3) []plane {
	const eps = 1e-7
	var out []plane
	n := len(pts)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				normal := pts[j].Sub(pts[i]).Cross(pts[k].Sub(pts[i]))
				l := normal.Len()
				if l < eps {
					continue
				}
				normal = normal.Mul(1 / l)
				d := normal.Dot(pts[i])

				above, below := false, false
				for _, p := range pts {
					s := normal.Dot(p) - d
					if s > eps {
						above = true
					} else if s < -eps {
						below = true
					}
					if above && below {
						break
					}
				}
				switch {
				case above && below:
					continue
				case above:
					normal, d = normal.Mul(-1), -d
				}
				if !hasPlane(out, normal, d) {
					out = append(out, plane{n: normal, d: d})
				}
			}
		}
	}
	return out
}

func hasPlane(planes []plane, n mgl64.Vec3, d float64) bool {
	for _, p := range planes {
		if p.n.ApproxEqualThreshold(n, 1e-6) && math.Abs(p.d-d) < 1e-6 {
			return true
		}
	}
	return false
}

func centroid(pts []mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(pts)))
}

func boundsVolume(b physics.AABB) float64 {
	e := b.Max.Sub(b.Min)
	return e[0] * e[1] * e[2]
}
