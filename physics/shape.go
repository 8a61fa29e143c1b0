package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/vmath"
)

// ShapeKind tags a descriptor variant
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeConvexHull
	ShapeMesh
	ShapeOffsetCenterOfMass
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeConvexHull:
		return "convex-hull"
	case ShapeMesh:
		return "mesh"
	case ShapeOffsetCenterOfMass:
		return "offset-com"
	}
	return "unknown"
}

// ShapeDescriptor is the engine-independent recipe for a collision shape
type ShapeDescriptor interface {
	Kind() ShapeKind
	// Validate reports why the descriptor cannot produce a shape
	Validate() error
	// LocalBounds returns the bounds in shape space
	LocalBounds() AABB
}

// Shape is an engine-created collision shape
type Shape interface {
	Descriptor() ShapeDescriptor
	LocalBounds() AABB
	// CenterOfMass is the mass center in shape space
	CenterOfMass() mgl64.Vec3
}

// Box is a cuboid centered on the origin
type Box struct {
	HalfExtent   mgl64.Vec3
	ConvexRadius float64
}

func (Box) Kind() ShapeKind { return ShapeBox }

func (b Box) Validate() error {
	for i := 0; i < 3; i++ {
		if b.HalfExtent[i] <= 0 {
			return fmt.Errorf("box half extent %v has non-positive axis %d", b.HalfExtent, i)
		}
	}
	if b.ConvexRadius < 0 {
		return fmt.Errorf("box convex radius %v is negative", b.ConvexRadius)
	}
	return nil
}

func (b Box) LocalBounds() AABB {
	return AABB{Min: b.HalfExtent.Mul(-1), Max: b.HalfExtent}
}

// Sphere is centered on the origin
type Sphere struct {
	Radius float64
}

func (Sphere) Kind() ShapeKind { return ShapeSphere }

func (s Sphere) Validate() error {
	if s.Radius <= 0 {
		return fmt.Errorf("sphere radius %v is non-positive", s.Radius)
	}
	return nil
}

func (s Sphere) LocalBounds() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: r.Mul(-1), Max: r}
}

// ConvexHull is the convex closure of a point cloud
type ConvexHull struct {
	Points []mgl64.Vec3
}

func (ConvexHull) Kind() ShapeKind { return ShapeConvexHull }

func (h ConvexHull) Validate() error {
	if len(h.Points) < 4 {
		return fmt.Errorf("convex hull needs at least 4 points, got %d", len(h.Points))
	}
	if !spansVolume(h.Points) {
		return fmt.Errorf("convex hull points are coplanar")
	}
	return nil
}

func (h ConvexHull) LocalBounds() AABB {
	return pointBounds(h.Points)
}

// Triangle is three vertices in counter-clockwise order
type Triangle [3]mgl64.Vec3

// Area returns the triangle area
func (t Triangle) Area() float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Len() * 0.5
}

// Mesh is an arbitrary triangle soup, static use only
type Mesh struct {
	Triangles []Triangle
}

func (Mesh) Kind() ShapeKind { return ShapeMesh }

func (m Mesh) Validate() error {
	for _, t := range m.Triangles {
		if t.Area() > vmath.Epsilon {
			return nil
		}
	}
	return fmt.Errorf("mesh has no non-degenerate triangle (%d triangles)", len(m.Triangles))
}

func (m Mesh) LocalBounds() AABB {
	pts := make([]mgl64.Vec3, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		pts = append(pts, t[0], t[1], t[2])
	}
	return pointBounds(pts)
}

// OffsetCenterOfMass wraps a shape and moves its mass center by Offset
type OffsetCenterOfMass struct {
	Offset mgl64.Vec3
	Inner  ShapeDescriptor
}

func (OffsetCenterOfMass) Kind() ShapeKind { return ShapeOffsetCenterOfMass }

func (o OffsetCenterOfMass) Validate() error {
	if o.Inner == nil {
		return fmt.Errorf("offset center of mass has no inner shape")
	}
	if err := o.Inner.Validate(); err != nil {
		return fmt.Errorf("inner %s: %w", o.Inner.Kind(), err)
	}
	return nil
}

func (o OffsetCenterOfMass) LocalBounds() AABB {
	if o.Inner == nil {
		return AABB{}
	}
	return o.Inner.LocalBounds()
}

// --- Helpers ---

func pointBounds(pts []mgl64.Vec3) AABB {
	if len(pts) == 0 {
		return AABB{}
	}
	b := AABB{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = vmath.MinVec(b.Min, p)
		b.Max = vmath.MaxVec(b.Max, p)
	}
	return b
}

// spansVolume reports whether the points contain four non-coplanar members
func spansVolume(pts []mgl64.Vec3) bool {
	const eps = 1e-9
	p0 := pts[0]
	i1 := -1
	for i := 1; i < len(pts); i++ {
		if pts[i].Sub(p0).Len() > eps {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return false
	}
	e1 := pts[i1].Sub(p0)
	var n mgl64.Vec3
	found := false
	for i := i1 + 1; i < len(pts); i++ {
		n = e1.Cross(pts[i].Sub(p0))
		if n.Len() > eps {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	n = n.Normalize()
	for _, p := range pts {
		d := n.Dot(p.Sub(p0))
		if d > eps || d < -eps {
			return true
		}
	}
	return false
}
