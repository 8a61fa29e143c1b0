package physics

import "github.com/go-gl/mathgl/mgl64"

// BodyID identifies a body inside one World, zero is never issued
type BodyID uint32

// InvalidBodyID is the zero ID
const InvalidBodyID BodyID = 0

// MotionKind selects whether a body is simulated
type MotionKind uint8

const (
	MotionStatic MotionKind = iota
	MotionDynamic
)

func (k MotionKind) String() string {
	switch k {
	case MotionStatic:
		return "static"
	case MotionDynamic:
		return "dynamic"
	}
	return "unknown"
}

// BodyType distinguishes rigid bodies from deformable ones
type BodyType uint8

const (
	BodyRigid BodyType = iota
	BodySoft
)

// Layer is an object layer used for pair filtering
type Layer uint16

const (
	LayerNonMoving Layer = 0
	LayerMoving    Layer = 1

	// NumLayers is the number of layers the default filter knows about
	NumLayers = 2
)

func (l Layer) String() string {
	switch l {
	case LayerNonMoving:
		return "non-moving"
	case LayerMoving:
		return "moving"
	}
	return "layer"
}

// Activation tells AddBody whether the body starts awake
type Activation uint8

const (
	DontActivate Activation = iota
	Activate
)

// Transform is a rigid pose
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity returns the identity transform
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// Apply maps a local point into the parent frame
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Position)
}

// Mul composes t with child (child expressed in t's frame)
func (t Transform) Mul(child Transform) Transform {
	return Transform{
		Position: t.Apply(child.Position),
		Rotation: t.Rotation.Mul(child.Rotation).Normalize(),
	}
}

// AABB is an axis aligned bounding box
type AABB struct {
	Min, Max mgl64.Vec3
}

// Overlaps reports whether two boxes intersect (touching counts)
func (b AABB) Overlaps(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

// Center returns the box midpoint
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns the half size
func (b AABB) Extent() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Corners returns the eight box corners
func (b AABB) Corners() [8]mgl64.Vec3 {
	var c [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		c[i] = mgl64.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[i][0] = b.Max[0]
		}
		if i&2 != 0 {
			c[i][1] = b.Max[1]
		}
		if i&4 != 0 {
			c[i][2] = b.Max[2]
		}
	}
	return c
}

// Transformed returns the world AABB enclosing b after applying t
func (b AABB) Transformed(t Transform) AABB {
	corners := b.Corners()
	first := t.Apply(corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := t.Apply(c)
		for k := 0; k < 3; k++ {
			if p[k] < out.Min[k] {
				out.Min[k] = p[k]
			}
			if p[k] > out.Max[k] {
				out.Max[k] = p[k]
			}
		}
	}
	return out
}
